// Package render turns validated action parameters into the exact command
// strings the exec bridge runs. Rendering is pure: the same inputs always
// produce byte-identical commands, and nothing downstream re-escapes.
package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/shell"
)

// cliName is the binary inside the container.
const cliName = "detee-cli"

// Defaults are substituted for omitted creation parameters before escaping.
type Defaults struct {
	Distro   string
	VCPUs    int64
	MemoryMB int64
	DiskGB   int64
	Hours    int64
}

// CreateDefaults returns the fixed creation defaults.
func CreateDefaults() Defaults {
	return Defaults{Distro: "ubuntu", VCPUs: 2, MemoryMB: 2048, DiskGB: 20, Hours: 4}
}

// CreateParams are the optional create_worker parameters; zero values mean
// "use the default".
type CreateParams struct {
	Distro   string
	VCPUs    int64
	MemoryMB int64
	DiskGB   int64
	Hours    int64
}

// Renderer renders commands for one host platform. Commands executed inside
// the container always use the POSIX dialect (the CLI container is Linux);
// the host dialect only shapes host-side artifacts such as bind-mount paths.
type Renderer struct {
	host      shell.Dialect
	container shell.Dialect
	defaults  Defaults
}

// New builds a Renderer for the given host dialect.
func New(host shell.Dialect) *Renderer {
	return &Renderer{host: host, container: shell.Unix{}, defaults: CreateDefaults()}
}

// TestInstall renders the CLI version probe.
func (r *Renderer) TestInstall() string {
	return cliName + " --version"
}

// AccountInfo renders the account report command.
func (r *Renderer) AccountInfo() string {
	return cliName + " account"
}

// SetupAccount renders the account registration sequence: generate an ed25519
// key when missing, register the pubkey path, then set the brain URL. The
// commands run sequentially, never concurrently, and the sequence is
// idempotent when the account is already configured.
func (r *Renderer) SetupAccount(pubkeyPath, brainURL string) ([]string, error) {
	// The private-key path is the pubkey path minus ".pub"; without the
	// suffix ssh-keygen would target (and the CLI register) the wrong file.
	if !strings.HasSuffix(pubkeyPath, ".pub") {
		return nil, domain.NewError(domain.ErrInvalidParameter,
			"ssh pubkey path %q must end in .pub", pubkeyPath)
	}
	pub, err := r.quote(pubkeyPath)
	if err != nil {
		return nil, err
	}
	priv, err := r.quote(strings.TrimSuffix(pubkeyPath, ".pub"))
	if err != nil {
		return nil, err
	}
	url, err := r.quote(brainURL)
	if err != nil {
		return nil, err
	}
	return []string{
		"[ -f " + pub + " ] || ssh-keygen -t ed25519 -f " + priv + " -N ''",
		cliName + " account ssh-pubkey-path " + pub,
		cliName + " account brain-url " + url,
	}, nil
}

// Effective returns p with creation defaults substituted for omitted fields.
func (r *Renderer) Effective(p CreateParams) CreateParams {
	if p.Distro == "" {
		p.Distro = r.defaults.Distro
	}
	if p.VCPUs == 0 {
		p.VCPUs = r.defaults.VCPUs
	}
	if p.MemoryMB == 0 {
		p.MemoryMB = r.defaults.MemoryMB
	}
	if p.DiskGB == 0 {
		p.DiskGB = r.defaults.DiskGB
	}
	if p.Hours == 0 {
		p.Hours = r.defaults.Hours
	}
	return p
}

// CreateWorker renders the deploy command, substituting defaults for omitted
// parameters.
func (r *Renderer) CreateWorker(p CreateParams) (string, error) {
	p = r.Effective(p)
	for _, n := range []int64{p.VCPUs, p.MemoryMB, p.DiskGB, p.Hours} {
		if n < 0 {
			return "", domain.NewError(domain.ErrInvalidParameter, "creation sizes must be positive, got %d", n)
		}
	}
	distro, err := r.quote(p.Distro)
	if err != nil {
		return "", err
	}
	return cliName + " vm deploy" +
		" --distro " + distro +
		" --vcpus " + strconv.FormatInt(p.VCPUs, 10) +
		" --memory " + strconv.FormatInt(p.MemoryMB, 10) +
		" --disk " + strconv.FormatInt(p.DiskGB, 10) +
		" --hours " + strconv.FormatInt(p.Hours, 10), nil
}

// ListWorkers renders the VM listing command.
func (r *Renderer) ListWorkers() string {
	return cliName + " vm list"
}

// updateParam matches the pre-formatted flag strings the caller passes to
// update_worker, e.g. "--memory 4096".
var updateParam = regexp.MustCompile(`^--(vcpus|memory|hours) ([0-9]+)$`)

// UpdateWorker renders the update command. Each of the three optional params
// is either empty (omitted entirely from the rendered command) or a
// pre-formatted "--flag NUMBER" string, which is split and re-escaped as a
// flag token plus value.
func (r *Renderer) UpdateWorker(workerID, vcpusParam, memoryParam, hoursParam string) (string, error) {
	id, err := r.quote(workerID)
	if err != nil {
		return "", err
	}
	parts := []string{cliName, "vm", "update"}
	for _, p := range []string{vcpusParam, memoryParam, hoursParam} {
		if p == "" {
			continue
		}
		m := updateParam.FindStringSubmatch(p)
		if m == nil {
			return "", domain.NewError(domain.ErrInvalidParameter,
				"update parameter %q must look like \"--vcpus NUMBER\", \"--memory NUMBER\" or \"--hours NUMBER\"", p)
		}
		parts = append(parts, "--"+m[1], m[2])
	}
	parts = append(parts, id)
	return strings.Join(parts, " "), nil
}

// DeleteWorker renders the delete command.
func (r *Renderer) DeleteWorker(workerID string) (string, error) {
	id, err := r.quote(workerID)
	if err != nil {
		return "", err
	}
	return cliName + " vm delete " + id, nil
}

// BindMounts renders the bind-mount specs that persist account config and
// SSH keys across container restarts. Paths are host-dialect relative
// (home-placeholder prefixed) until the docker adapter expands them.
func (r *Renderer) BindMounts(volumeRoot string) []string {
	if volumeRoot == "" {
		volumeRoot = r.host.Join(r.host.Home(), ".detee", "container_volume")
	}
	return []string{
		r.host.Join(volumeRoot, "cli") + ":/root/.detee/cli:rw",
		r.host.Join(volumeRoot, ".ssh") + ":/root/.ssh:rw",
	}
}

// Host exposes the host dialect so the docker adapter can expand home
// placeholders in the rendered bind specs.
func (r *Renderer) Host() shell.Dialect { return r.host }

func (r *Renderer) quote(s string) (string, error) {
	q, err := r.container.Quote(s)
	if err != nil {
		return "", domain.NewError(domain.ErrInvalidParameter, "%s", err)
	}
	return q, nil
}
