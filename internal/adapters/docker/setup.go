package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
)

// Setup pulls the CLI image and creates/starts the long-lived container with
// the given bind mounts. Idempotent: a container that already exists is
// started if stopped and otherwise left alone.
func (a *Adapter) Setup(ctx context.Context, binds []string) (string, error) {
	info, err := a.cli.ContainerInspect(ctx, a.container)
	switch {
	case err == nil:
		if info.State != nil && info.State.Running {
			a.log.Debug().Str("container", a.container).Msg("container already running")
			return shortID(info.ID), nil
		}
		if err := a.cli.ContainerStart(ctx, info.ID, types.ContainerStartOptions{}); err != nil {
			return "", fmt.Errorf("failed to start existing container %s: %w", a.container, err)
		}
		return shortID(info.ID), nil
	case !client.IsErrNotFound(err):
		return "", fmt.Errorf("failed to inspect container %s: %w", a.container, err)
	}

	reader, err := a.cli.ImagePull(ctx, a.image, types.ImagePullOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to pull image %s: %w", a.image, err)
	}
	// The pull stream must be drained for the pull to complete.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()

	resp, err := a.cli.ContainerCreate(ctx, &container.Config{
		Image: a.image,
		// The CLI image expects an interactive fish shell to keep the
		// container alive between exec calls.
		Entrypoint: strslice.StrSlice{"/usr/bin/fish"},
		Tty:        true,
		OpenStdin:  true,
	}, &container.HostConfig{
		Binds: binds,
	}, nil, nil, a.container)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", a.container, err)
	}

	if err := a.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container %s: %w", a.container, err)
	}

	a.log.Info().Str("container", a.container).Str("image", a.image).Msg("container created and started")
	return shortID(resp.ID), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
