package ports

import (
	"context"

	"github.com/OmniCloudOrg/CPI-Detee/internal/core/domain"
)

// CommandExecutor runs one rendered command inside the managed CLI container
// and captures its output. A non-zero exit is reported inside the
// CommandResult, not as an error; the error return is reserved for transport
// failures (container missing/stopped, timeout, engine unreachable).
//
// The executor provides no mutual exclusion: two concurrent calls against the
// same container are not isolated from each other at the CLI's storage layer.
// The dispatcher serializes calls for this reason.
type CommandExecutor interface {
	Exec(ctx context.Context, command string) (domain.CommandResult, error)
}

// ContainerManager covers the one-time container lifecycle: create/start the
// CLI container with its bind mounts, and probe whether it is running.
type ContainerManager interface {
	// Setup pulls the CLI image and creates/starts the container with the
	// given bind mounts. It is idempotent: an already-running container is
	// left alone. Returns the (short) container id.
	Setup(ctx context.Context, binds []string) (string, error)
	// Running reports whether the container exists and is running.
	Running(ctx context.Context) (bool, error)
}

// ActionDispatcher is the single entry point the transport layer talks to.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req domain.ActionRequest) domain.ActionResponse
}
