package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
)

// Adapter implements ports.CommandExecutor and ports.ContainerManager on the
// Docker SDK. It holds no mutable state beyond the client and the container
// reference it was configured with; all side effects happen in the container.
type Adapter struct {
	cli       *client.Client
	container string
	image     string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewAdapter creates a Docker adapter for the named CLI container.
func NewAdapter(containerName, image string, timeout time.Duration, log zerolog.Logger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli, container: containerName, image: image, timeout: timeout, log: log}, nil
}

// Running reports whether the CLI container exists and is running.
func (a *Adapter) Running(ctx context.Context) (bool, error) {
	info, err := a.cli.ContainerInspect(ctx, a.container)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect container %s: %w", a.container, err)
	}
	return info.State != nil && info.State.Running, nil
}

// Exec runs one command inside the running CLI container through a POSIX
// shell, capturing stdout and stderr separately. The command is bounded by
// the configured timeout; on expiry the partial output captured so far is
// returned inside the CommandTimeout error detail.
func (a *Adapter) Exec(ctx context.Context, command string) (domain.CommandResult, error) {
	running, err := a.Running(ctx)
	if err != nil {
		return domain.CommandResult{}, err
	}
	if !running {
		return domain.CommandResult{}, domain.NewError(domain.ErrContainerNotReady,
			"container %s is not running", a.container)
	}

	execCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	created, err := a.cli.ContainerExecCreate(execCtx, a.container, types.ExecConfig{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"/bin/sh", "-c", command},
	})
	if err != nil {
		return domain.CommandResult{}, fmt.Errorf("failed to create exec in %s: %w", a.container, err)
	}

	attach, err := a.cli.ContainerExecAttach(execCtx, created.ID, types.ExecStartCheck{})
	if err != nil {
		return domain.CommandResult{}, fmt.Errorf("failed to attach exec in %s: %w", a.container, err)
	}
	defer attach.Close()

	// The hijacked connection has no deadline of its own: StdCopy would
	// block past the timeout on a hung command. Demux in a goroutine and
	// close the connection on expiry to unblock the read.
	var stdout, stderr bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
		copied <- err
	}()

	var copyErr error
	select {
	case copyErr = <-copied:
	case <-execCtx.Done():
		attach.Close()
		<-copied
		if ctx.Err() != nil {
			return domain.CommandResult{}, fmt.Errorf("exec canceled: %w", ctx.Err())
		}
		return domain.CommandResult{}, domain.NewErrorDetail(domain.ErrCommandTimeout,
			stdout.String()+stderr.String(),
			"command did not finish within %s", a.timeout)
	}
	if copyErr != nil && !errors.Is(copyErr, context.Canceled) {
		return domain.CommandResult{}, fmt.Errorf("failed to read exec output: %w", copyErr)
	}

	// The exec may already be gone from the attach context; inspect with
	// the caller's context so a finished command still reports its status.
	inspect, err := a.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return domain.CommandResult{}, fmt.Errorf("failed to inspect exec: %w", err)
	}

	res := domain.CommandResult{
		ExitCode: inspect.ExitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	a.log.Trace().Int("exit_code", res.ExitCode).Int("stdout_bytes", stdout.Len()).Msg("exec finished")
	return res, nil
}
