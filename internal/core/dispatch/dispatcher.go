// Package dispatch is the single entry point of the action bridge. It
// validates requests, enforces the container/account setup state machine,
// and orchestrates render → execute → parse → map for every action.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/parse"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/ports"
	"github.com/OmniCloudOrg/CPI-Detee/internal/core/render"
)

// State tracks how far setup has progressed. It is process-local and never
// trusted from a prior run: Probe re-derives it from the container.
type State int

const (
	StateUninitialized State = iota
	StateContainerReady
	StateAccountReady
)

func (s State) String() string {
	switch s {
	case StateContainerReady:
		return "container_ready"
	case StateAccountReady:
		return "account_ready"
	default:
		return "uninitialized"
	}
}

// Options carry the account and volume settings the setup actions need.
type Options struct {
	// BrainURL is the remote service endpoint accounts register against.
	BrainURL string
	// SSHPubkeyPath is the pubkey path inside the container.
	SSHPubkeyPath string
	// VolumeRoot is the host directory persisted into the container;
	// empty means the dialect default under the home directory.
	VolumeRoot string
}

// Dispatcher owns the container reference and dispatcher state. One instance
// serves a process; its mutex serializes actions because the underlying
// container exec primitive has no mutual exclusion of its own.
type Dispatcher struct {
	mu     sync.Mutex
	state  State
	exec   ports.CommandExecutor
	mgr    ports.ContainerManager
	render *render.Renderer
	parse  *parse.Parser
	opts   Options
	log    zerolog.Logger
}

// New wires the pipeline stages into a Dispatcher starting at Uninitialized.
func New(exec ports.CommandExecutor, mgr ports.ContainerManager, r *render.Renderer, p *parse.Parser, opts Options, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{exec: exec, mgr: mgr, render: r, parse: p, opts: opts, log: log}
}

// State returns the current dispatcher state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Probe re-derives the state after a process restart: a running container
// yields ContainerReady, and a parsable account report on top of that yields
// AccountReady. Probe never fails; an unreachable engine leaves the state at
// Uninitialized.
func (d *Dispatcher) Probe(ctx context.Context) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = StateUninitialized
	running, err := d.mgr.Running(ctx)
	if err != nil || !running {
		d.log.Info().Err(err).Msg("container not running, state uninitialized")
		return d.state
	}
	d.state = StateContainerReady

	res, err := d.exec.Exec(ctx, d.render.AccountInfo())
	if err == nil {
		if _, perr := d.parse.Account(res); perr == nil {
			d.state = StateAccountReady
		}
	}
	d.log.Info().Stringer("state", d.state).Msg("state re-derived from container")
	return d.state
}

// Dispatch validates and executes one action. Validation errors are returned
// before any external process is spawned; execution and parse errors are
// surfaced verbatim, never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.ActionRequest) domain.ActionResponse {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.log.Debug().Str("action", req.Action).Stringer("state", d.state).Msg("dispatching action")

	switch req.Action {
	case domain.ActionTestInstall:
		return d.guarded(StateContainerReady, func() domain.ActionResponse { return d.testInstall(ctx) })
	case domain.ActionSetupContainer:
		return d.setupContainer(ctx)
	case domain.ActionSetupAccount:
		return d.guarded(StateContainerReady, func() domain.ActionResponse { return d.setupAccount(ctx, req.Params) })
	case domain.ActionGetAccountInfo:
		return d.guarded(StateContainerReady, func() domain.ActionResponse { return d.accountInfo(ctx) })
	case domain.ActionCreateWorker:
		return d.guarded(StateAccountReady, func() domain.ActionResponse { return d.createWorker(ctx, req.Params) })
	case domain.ActionListWorkers:
		return d.guarded(StateAccountReady, func() domain.ActionResponse { return d.listWorkers(ctx) })
	case domain.ActionGetWorker:
		return d.guarded(StateAccountReady, func() domain.ActionResponse { return d.getWorker(ctx, req.Params) })
	case domain.ActionHasWorker:
		return d.guarded(StateAccountReady, func() domain.ActionResponse { return d.hasWorker(ctx, req.Params) })
	case domain.ActionUpdateWorker:
		return d.guarded(StateAccountReady, func() domain.ActionResponse { return d.updateWorker(ctx, req.Params) })
	case domain.ActionDeleteWorker:
		return d.guarded(StateAccountReady, func() domain.ActionResponse { return d.deleteWorker(ctx, req.Params) })
	default:
		return domain.Fail(domain.NewError(domain.ErrUnknownAction, "unknown action %q", req.Action))
	}
}

// guarded rejects the action with NotConfigured when the state precondition
// is unmet, without touching the exec bridge.
func (d *Dispatcher) guarded(min State, fn func() domain.ActionResponse) domain.ActionResponse {
	if d.state < min {
		return domain.Fail(domain.NewError(domain.ErrNotConfigured,
			"action requires state %s, current state is %s", min, d.state))
	}
	return fn()
}

func (d *Dispatcher) testInstall(ctx context.Context) domain.ActionResponse {
	res, err := d.run(ctx, d.render.TestInstall())
	if err != nil {
		return domain.Fail(err)
	}
	info, err := d.parse.Version(res)
	if err != nil {
		return domain.Fail(err)
	}
	return domain.OK(info)
}

func (d *Dispatcher) setupContainer(ctx context.Context) domain.ActionResponse {
	binds, err := d.hostBinds()
	if err != nil {
		return domain.Fail(err)
	}
	id, err := d.mgr.Setup(ctx, binds)
	if err != nil {
		return domain.Fail(err)
	}
	if d.state < StateContainerReady {
		d.state = StateContainerReady
	}
	d.log.Info().Str("container_id", id).Msg("container ready")
	return domain.OK(setupPayload{ContainerID: id})
}

// hostBinds expands the home placeholder in the rendered bind specs to the
// real home directory, per the host dialect.
func (d *Dispatcher) hostBinds() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	specs := d.render.BindMounts(d.opts.VolumeRoot)
	binds := make([]string, 0, len(specs))
	for _, spec := range specs {
		binds = append(binds, d.render.Host().ExpandHome(spec, home))
	}
	return binds, nil
}

func (d *Dispatcher) setupAccount(ctx context.Context, params map[string]any) domain.ActionResponse {
	pubkey, derr := optStringParam(params, "ssh_pubkey_path")
	if derr != nil {
		return domain.Fail(derr)
	}
	if pubkey == "" {
		pubkey = d.opts.SSHPubkeyPath
	}
	brainURL, derr := optStringParam(params, "brain_url")
	if derr != nil {
		return domain.Fail(derr)
	}
	if brainURL == "" {
		brainURL = d.opts.BrainURL
	}
	cmds, err := d.render.SetupAccount(pubkey, brainURL)
	if err != nil {
		return domain.Fail(err)
	}
	// Short sequential setup sequence; never concurrent.
	for _, cmd := range cmds {
		res, err := d.run(ctx, cmd)
		if err != nil {
			return domain.Fail(err)
		}
		if err := d.parse.Check(res); err != nil {
			return domain.Fail(err)
		}
	}
	d.state = StateAccountReady
	d.log.Info().Str("brain_url", brainURL).Msg("account configured")
	return domain.OK(nil)
}

func (d *Dispatcher) accountInfo(ctx context.Context) domain.ActionResponse {
	res, err := d.run(ctx, d.render.AccountInfo())
	if err != nil {
		return domain.Fail(err)
	}
	acct, err := d.parse.Account(res)
	if err != nil {
		return domain.Fail(err)
	}
	return domain.OK(acct)
}

func (d *Dispatcher) createWorker(ctx context.Context, params map[string]any) domain.ActionResponse {
	var p render.CreateParams
	var derr *domain.Error
	if p.Distro, derr = optStringParam(params, "distro"); derr != nil {
		return domain.Fail(derr)
	}
	if p.VCPUs, derr = optIntParam(params, "vcpus"); derr != nil {
		return domain.Fail(derr)
	}
	if p.MemoryMB, derr = optIntParam(params, "memory_mb"); derr != nil {
		return domain.Fail(derr)
	}
	if p.DiskGB, derr = optIntParam(params, "disk_gb"); derr != nil {
		return domain.Fail(derr)
	}
	if p.Hours, derr = optIntParam(params, "hours"); derr != nil {
		return domain.Fail(derr)
	}
	cmd, err := d.render.CreateWorker(p)
	if err != nil {
		return domain.Fail(err)
	}
	res, err := d.run(ctx, cmd)
	if err != nil {
		return domain.Fail(err)
	}
	w, err := d.parse.Created(res)
	if err != nil {
		return domain.Fail(err)
	}
	// The deploy banner does not echo the requested sizes back; fill them
	// in from the effective (defaulted) request.
	eff := d.render.Effective(p)
	w.Distro = eff.Distro
	w.VCPUs = eff.VCPUs
	w.MemoryMB = eff.MemoryMB
	w.DiskGB = eff.DiskGB
	w.Hours = eff.Hours
	return domain.OK(mapWorker(w))
}

func (d *Dispatcher) listWorkers(ctx context.Context) domain.ActionResponse {
	ws, err := d.fetchWorkers(ctx)
	if err != nil {
		return domain.Fail(err)
	}
	return domain.OK(workersPayload{Workers: mapWorkers(ws)})
}

// fetchWorkers lists the fleet; lookups filter the parsed table in-process
// rather than piping through grep inside the container shell.
func (d *Dispatcher) fetchWorkers(ctx context.Context) ([]domain.Worker, error) {
	res, err := d.run(ctx, d.render.ListWorkers())
	if err != nil {
		return nil, err
	}
	return d.parse.Workers(res)
}

func (d *Dispatcher) getWorker(ctx context.Context, params map[string]any) domain.ActionResponse {
	id, derr := workerIDParam(params)
	if derr != nil {
		return domain.Fail(derr)
	}
	ws, err := d.fetchWorkers(ctx)
	if err != nil {
		return domain.Fail(err)
	}
	for _, w := range ws {
		if w.UUID == id {
			return domain.OK(mapWorker(w))
		}
	}
	return domain.Fail(domain.NewError(domain.ErrNotFound, "worker %s not found", id))
}

func (d *Dispatcher) hasWorker(ctx context.Context, params map[string]any) domain.ActionResponse {
	id, derr := workerIDParam(params)
	if derr != nil {
		return domain.Fail(derr)
	}
	ws, err := d.fetchWorkers(ctx)
	if err != nil {
		return domain.Fail(err)
	}
	for _, w := range ws {
		if w.UUID == id {
			return domain.OK(existsPayload{Exists: true})
		}
	}
	return domain.OK(existsPayload{Exists: false})
}

func (d *Dispatcher) updateWorker(ctx context.Context, params map[string]any) domain.ActionResponse {
	id, derr := workerIDParam(params)
	if derr != nil {
		return domain.Fail(derr)
	}
	vcpus, derr := presentStringParam(params, "vcpus_param")
	if derr != nil {
		return domain.Fail(derr)
	}
	memory, derr := presentStringParam(params, "memory_param")
	if derr != nil {
		return domain.Fail(derr)
	}
	hours, derr := presentStringParam(params, "hours_param")
	if derr != nil {
		return domain.Fail(derr)
	}
	cmd, err := d.render.UpdateWorker(id, vcpus, memory, hours)
	if err != nil {
		return domain.Fail(err)
	}
	res, err := d.run(ctx, cmd)
	if err != nil {
		return domain.Fail(err)
	}
	receipt, err := d.parse.Updated(res)
	if err != nil {
		return domain.Fail(err)
	}
	return domain.OK(receipt)
}

func (d *Dispatcher) deleteWorker(ctx context.Context, params map[string]any) domain.ActionResponse {
	id, derr := workerIDParam(params)
	if derr != nil {
		return domain.Fail(derr)
	}
	cmd, err := d.render.DeleteWorker(id)
	if err != nil {
		return domain.Fail(err)
	}
	res, err := d.run(ctx, cmd)
	if err != nil {
		return domain.Fail(err)
	}
	if err := d.parse.Deleted(res); err != nil {
		return domain.Fail(err)
	}
	return domain.OK(deletedPayload{Deleted: true})
}

// run performs exactly one external invocation; no retries anywhere in the
// pipeline.
func (d *Dispatcher) run(ctx context.Context, command string) (domain.CommandResult, error) {
	start := time.Now()
	res, err := d.exec.Exec(ctx, command)
	ev := d.log.Debug().Str("command", command).Dur("took", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("command execution failed")
		return res, err
	}
	ev.Int("exit_code", res.ExitCode).Msg("command executed")
	return res, nil
}
