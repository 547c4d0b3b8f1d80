// Package parse turns raw detee-cli output into typed domain records. The
// tool's output format is treated as versioned, untrusted input: every
// reader first looks for an embedded JSON payload and only then falls back
// to scanning for known field labels, tolerating banners and progress lines
// around the interesting part.
package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
)

// FieldSet holds the labels and markers the line-scan fallback recognizes.
// Defaults mirror detee-cli 0.x output; individual entries can be overridden
// to track tool version drift without touching the parser.
type FieldSet struct {
	VersionPrefix string

	ConfigPathLabel      string
	BrainURLLabel        string
	SSHKeyPathLabel      string
	WalletPublicKeyLabel string
	AccountBalanceLabel  string
	WalletSecretKeyLabel string

	CreatedMarker string
	HostnameLabel string
	PriceLabel    string
	UnitsLabel    string
	LockingPrefix string
	SSHPrefix     string

	HardwareModifiedMarker string
	HoursUpdatedMarker     string

	NotFoundMarkers []string
}

// DefaultFieldSet returns the label set matching current detee-cli output.
func DefaultFieldSet() FieldSet {
	return FieldSet{
		VersionPrefix: "detee-cli",

		ConfigPathLabel:      "Config path:",
		BrainURLLabel:        "brain URL is:",
		SSHKeyPathLabel:      "SSH Key Path:",
		WalletPublicKeyLabel: "Wallet public key:",
		AccountBalanceLabel:  "Account Balance:",
		WalletSecretKeyLabel: "Wallet secret key path:",

		CreatedMarker: "VM CREATED",
		HostnameLabel: "Using random VM name:",
		PriceLabel:    "Node price:",
		UnitsLabel:    "Total Units for hardware requested:",
		LockingPrefix: "Locking",
		SSHPrefix:     "ssh -p",

		HardwareModifiedMarker: "The node accepted the hardware modifications",
		HoursUpdatedMarker:     "The VM will run for another",

		NotFoundMarkers: []string{"not found", "does not exist", "no such vm"},
	}
}

var uuidRe = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// Parser reads CommandResults into domain records.
type Parser struct {
	fields FieldSet
}

// New builds a Parser with the given field set.
func New(fields FieldSet) *Parser {
	return &Parser{fields: fields}
}

// guard enforces the exit-code policy: non-zero exit always yields
// CommandFailed carrying the raw output verbatim; nothing is parsed.
func (p *Parser) guard(res domain.CommandResult) error {
	if res.ExitCode != 0 {
		return domain.NewErrorDetail(domain.ErrCommandFailed, res.Output(),
			"command exited with status %d", res.ExitCode)
	}
	return nil
}

// Check applies the exit-code policy without reading any fields. Setup
// sequences use it for commands whose output carries nothing of interest.
func (p *Parser) Check(res domain.CommandResult) error {
	return p.guard(res)
}

// Version reads the CLI version probe output.
func (p *Parser) Version(res domain.CommandResult) (domain.InstallInfo, error) {
	if err := p.guard(res); err != nil {
		return domain.InstallInfo{}, err
	}
	var info domain.InstallInfo
	if tryJSON(res.Stdout, &info) && info.Version != "" {
		return info, nil
	}
	for _, line := range lines(res.Stdout) {
		if strings.HasPrefix(line, p.fields.VersionPrefix) {
			v := strings.TrimSpace(strings.TrimPrefix(line, p.fields.VersionPrefix))
			if v != "" {
				return domain.InstallInfo{Version: v}, nil
			}
		}
	}
	return domain.InstallInfo{}, parseErr(res.Stdout, "no %q version line in output", p.fields.VersionPrefix)
}

// Account reads the account report. All labels must be present; a partially
// recognizable block is a parse error, never a partial record.
func (p *Parser) Account(res domain.CommandResult) (domain.Account, error) {
	if err := p.guard(res); err != nil {
		return domain.Account{}, err
	}
	var acct domain.Account
	if tryJSON(res.Stdout, &acct) && acct.BrainURL != "" && acct.WalletPublicKey != "" {
		return acct, nil
	}
	ls := lines(res.Stdout)
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{p.fields.ConfigPathLabel, &acct.ConfigPath},
		{p.fields.BrainURLLabel, &acct.BrainURL},
		{p.fields.SSHKeyPathLabel, &acct.SSHKeyPath},
		{p.fields.WalletPublicKeyLabel, &acct.WalletPublicKey},
		{p.fields.AccountBalanceLabel, &acct.AccountBalance},
		{p.fields.WalletSecretKeyLabel, &acct.WalletSecretKeyPath},
	} {
		v, ok := labelValue(ls, f.label)
		if !ok {
			return domain.Account{}, parseErr(res.Stdout, "account output is missing the %q field", f.label)
		}
		*f.dst = v
	}
	return acct, nil
}

// createPayload mirrors the JSON shape newer CLI builds can emit on deploy.
type createPayload struct {
	UUID       string  `json:"uuid"`
	Hostname   string  `json:"hostname"`
	Price      string  `json:"price"`
	TotalUnits int64   `json:"total_units"`
	LockedLP   float64 `json:"locked_lp"`
	SSHHost    string  `json:"ssh_host"`
	SSHPort    int64   `json:"ssh_port"`
}

// Created reads the deploy output into a Worker. The uuid is mandatory; the
// remaining fields are taken when their labels are present, but a label whose
// value fails to parse is an error.
func (p *Parser) Created(res domain.CommandResult) (domain.Worker, error) {
	if err := p.guard(res); err != nil {
		return domain.Worker{}, err
	}
	var pay createPayload
	if tryJSON(res.Stdout, &pay) && pay.UUID != "" {
		return domain.Worker{
			UUID:       pay.UUID,
			Hostname:   pay.Hostname,
			Price:      pay.Price,
			TotalUnits: pay.TotalUnits,
			LockedLP:   pay.LockedLP,
			SSHHost:    pay.SSHHost,
			SSHPort:    pay.SSHPort,
			Status:     "running",
		}, nil
	}
	if !strings.Contains(res.Stdout, p.fields.CreatedMarker) {
		return domain.Worker{}, parseErr(res.Stdout, "deploy output has no %q marker", p.fields.CreatedMarker)
	}
	w := domain.Worker{Status: "running"}
	ls := lines(res.Stdout)

	id := uuidRe.FindString(res.Stdout)
	if id == "" {
		return domain.Worker{}, parseErr(res.Stdout, "deploy output carries no VM uuid")
	}
	w.UUID = id

	if v, ok := labelValue(ls, p.fields.HostnameLabel); ok {
		w.Hostname = v
	}
	if v, ok := labelValue(ls, p.fields.PriceLabel); ok {
		// "Node price: 12.5 LP/h"; the numerator is the price.
		w.Price = strings.TrimSpace(strings.SplitN(v, "/", 2)[0])
	}
	if v, ok := labelValue(ls, p.fields.UnitsLabel); ok {
		n, err := parseInt(v, res.Stdout, "total units")
		if err != nil {
			return domain.Worker{}, err
		}
		w.TotalUnits = n
	}
	for _, line := range ls {
		if strings.HasPrefix(line, p.fields.LockingPrefix) {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				f, err := parseFloat(fields[1], res.Stdout, "locked LP")
				if err != nil {
					return domain.Worker{}, err
				}
				w.LockedLP = f
			}
			break
		}
	}
	for _, line := range ls {
		if idx := strings.Index(line, p.fields.SSHPrefix); idx >= 0 {
			// "ssh -p PORT root@HOST"
			fields := strings.Fields(line[idx:])
			if len(fields) >= 4 {
				port, err := parseInt(fields[2], res.Stdout, "ssh port")
				if err != nil {
					return domain.Worker{}, err
				}
				w.SSHPort = port
				if at := strings.IndexByte(fields[3], '@'); at >= 0 {
					w.SSHHost = fields[3][at+1:]
				}
			}
			break
		}
	}
	return w, nil
}

// Workers reads the VM listing table. An output with no table rows is an
// empty fleet, not an error.
func (p *Parser) Workers(res domain.CommandResult) ([]domain.Worker, error) {
	if err := p.guard(res); err != nil {
		return nil, err
	}
	var pays []createPayload
	if tryJSON(res.Stdout, &pays) {
		workers := make([]domain.Worker, 0, len(pays))
		for _, pay := range pays {
			if pay.UUID == "" {
				return nil, parseErr(res.Stdout, "listing entry carries no uuid")
			}
			workers = append(workers, domain.Worker{
				UUID:     pay.UUID,
				Hostname: pay.Hostname,
				Status:   "running",
			})
		}
		return workers, nil
	}

	workers := []domain.Worker{}
	for _, line := range lines(res.Stdout) {
		if !strings.Contains(line, "|") || strings.Contains(line, "----") {
			continue
		}
		cells := splitRow(line)
		if len(cells) < 8 {
			continue
		}
		if cells[0] == "City" || cells[1] == "UUID" {
			continue // header row
		}
		if uuidRe.FindString(cells[1]) != cells[1] {
			return nil, parseErr(res.Stdout, "table row has no uuid in column 2: %q", line)
		}
		cores, err := parseInt(cells[3], res.Stdout, "cores")
		if err != nil {
			return nil, err
		}
		mem, err := parseInt(cells[4], res.Stdout, "memory_mb")
		if err != nil {
			return nil, err
		}
		disk, err := parseInt(cells[5], res.Stdout, "disk_gb")
		if err != nil {
			return nil, err
		}
		lp, err := parseFloat(cells[6], res.Stdout, "lp_per_hour")
		if err != nil {
			return nil, err
		}
		workers = append(workers, domain.Worker{
			City:      cells[0],
			UUID:      cells[1],
			Hostname:  cells[2],
			VCPUs:     cores,
			MemoryMB:  mem,
			DiskGB:    disk,
			LPPerHour: lp,
			TimeLeft:  cells[7],
			Status:    "running",
		})
	}
	return workers, nil
}

// Updated reads the update confirmation.
func (p *Parser) Updated(res domain.CommandResult) (domain.UpdateReceipt, error) {
	if err := p.guard(res); err != nil {
		return domain.UpdateReceipt{}, err
	}
	var receipt domain.UpdateReceipt
	if tryJSON(res.Stdout, &receipt) && (receipt.HardwareModified || receipt.HoursUpdated > 0) {
		return receipt, nil
	}
	matched := false
	if strings.Contains(res.Stdout, p.fields.HardwareModifiedMarker) {
		receipt.HardwareModified = true
		matched = true
	}
	for _, line := range lines(res.Stdout) {
		if strings.Contains(line, p.fields.HoursUpdatedMarker) {
			// "The VM will run for another N hours"
			fields := strings.Fields(line)
			if len(fields) >= 7 {
				n, err := parseInt(fields[6], res.Stdout, "hours")
				if err != nil {
					return domain.UpdateReceipt{}, err
				}
				receipt.HoursUpdated = n
			}
			matched = true
			break
		}
	}
	if !matched {
		return domain.UpdateReceipt{}, parseErr(res.Stdout, "update output has no confirmation marker")
	}
	return receipt, nil
}

// Deleted reads the delete outcome. A non-zero exit whose output matches the
// tool's not-found phrasing is a successful no-op: deletion is idempotent.
func (p *Parser) Deleted(res domain.CommandResult) error {
	if res.ExitCode == 0 {
		return nil
	}
	if p.IsNotFound(res) {
		return nil
	}
	return p.guard(res)
}

// IsNotFound reports whether the output matches the tool's documented
// "no such VM" phrasing. Lookup actions use this to distinguish a valid
// negative result from a real failure.
func (p *Parser) IsNotFound(res domain.CommandResult) bool {
	out := strings.ToLower(res.Output())
	for _, marker := range p.fields.NotFoundMarkers {
		if strings.Contains(out, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func parseErr(raw, format string, args ...any) *domain.Error {
	return domain.NewErrorDetail(domain.ErrParse, raw, format, args...)
}

func parseInt(s, raw, field string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, parseErr(raw, "%s value %q is not an integer", field, s)
	}
	return n, nil
}

func parseFloat(s, raw, field string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, parseErr(raw, "%s value %q is not a number", field, s)
	}
	return f, nil
}

func lines(s string) []string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, strings.TrimSpace(strings.TrimSuffix(l, "\r")))
	}
	return out
}

// labelValue finds the first line containing label and returns the trimmed
// remainder after it.
func labelValue(ls []string, label string) (string, bool) {
	for _, line := range ls {
		if idx := strings.Index(line, label); idx >= 0 {
			return strings.TrimSpace(line[idx+len(label):]), true
		}
	}
	return "", false
}

// splitRow splits a pipe-separated table row into trimmed non-empty cells.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		if c := strings.TrimSpace(part); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// tryJSON scans stdout for an embedded JSON payload and decodes it into dst.
// Decoration before and after the payload is tolerated.
func tryJSON(stdout string, dst any) bool {
	for i := 0; i < len(stdout); i++ {
		if stdout[i] != '{' && stdout[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(stdout[i:]))
		var raw json.RawMessage
		if dec.Decode(&raw) != nil {
			continue
		}
		if json.Unmarshal(raw, dst) == nil {
			return true
		}
	}
	return false
}
