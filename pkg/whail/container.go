package whail

import (
	"context"
	"io"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
)

// ContainerCreate creates a container carrying the managed label.
// The provided labels are merged with the engine's configured labels.
func (e *Engine) ContainerCreate(ctx context.Context, opts ContainerCreateOptions, extraLabels ...map[string]string) (ContainerCreateResult, error) {
	if opts.Config == nil {
		opts.Config = &container.Config{}
	}
	// Merge labels: config + extra + user-provided, managed label last.
	opts.Config.Labels = MergeLabels(
		e.options.Labels.ContainerLabels(extraLabels...),
		opts.Config.Labels,
		e.managedLabels(),
	)

	resp, err := e.APIClient.ContainerCreate(ctx, opts)
	if err != nil {
		return ContainerCreateResult{}, ErrContainerCreateFailed(err)
	}
	return resp, nil
}

// ContainerStart starts a managed container.
func (e *Engine) ContainerStart(ctx context.Context, containerID string) error {
	if err := e.requireManaged(ctx, containerID, ErrContainerStartFailed); err != nil {
		return err
	}
	if _, err := e.APIClient.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return ErrContainerStartFailed(containerID, err)
	}
	return nil
}

// ContainerKill sends signal to a managed container. An empty signal means SIGKILL.
func (e *Engine) ContainerKill(ctx context.Context, containerID, signal string) error {
	if err := e.requireManaged(ctx, containerID, ErrContainerKillFailed); err != nil {
		return err
	}
	if _, err := e.APIClient.ContainerKill(ctx, containerID, client.ContainerKillOptions{Signal: signal}); err != nil {
		return ErrContainerKillFailed(containerID, err)
	}
	return nil
}

// ContainerRemove removes a managed container. Volumes are left in place.
func (e *Engine) ContainerRemove(ctx context.Context, containerID string, force bool) error {
	if err := e.requireManaged(ctx, containerID, ErrContainerRemoveFailed); err != nil {
		return err
	}
	_, err := e.APIClient.ContainerRemove(ctx, containerID, client.ContainerRemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	})
	if err != nil {
		return ErrContainerRemoveFailed(containerID, err)
	}
	return nil
}

// ContainerInspect inspects a managed container.
func (e *Engine) ContainerInspect(ctx context.Context, containerID string) (ContainerInspectResult, error) {
	info, err := e.APIClient.ContainerInspect(ctx, containerID, client.ContainerInspectOptions{})
	if err != nil {
		if IsNotFound(err) {
			return ContainerInspectResult{}, ErrContainerNotFound(containerID)
		}
		return ContainerInspectResult{}, ErrContainerInspectFailed(containerID, err)
	}
	if !e.isManagedLabelPresent(info.Container.Config) {
		return ContainerInspectResult{}, ErrContainerNotFound(containerID)
	}
	return info, nil
}

// ContainerLogs returns the log stream of a managed container.
// The caller is responsible for closing the reader.
func (e *Engine) ContainerLogs(ctx context.Context, containerID string, opts ContainerLogsOptions) (io.ReadCloser, error) {
	if err := e.requireManaged(ctx, containerID, ErrContainerLogsFailed); err != nil {
		return nil, err
	}
	rc, err := e.APIClient.ContainerLogs(ctx, containerID, opts)
	if err != nil {
		return nil, ErrContainerLogsFailed(containerID, err)
	}
	return rc, nil
}

// ContainerAttach attaches to a managed container's streams.
func (e *Engine) ContainerAttach(ctx context.Context, containerID string, opts ContainerAttachOptions) (HijackedResponse, error) {
	isManaged, err := e.IsContainerManaged(ctx, containerID)
	if err != nil {
		return HijackedResponse{}, ErrAttachFailed(err)
	}
	if !isManaged {
		return HijackedResponse{}, ErrContainerNotFound(containerID)
	}
	resp, err := e.APIClient.ContainerAttach(ctx, containerID, opts)
	if err != nil {
		return HijackedResponse{}, ErrAttachFailed(err)
	}
	return resp.HijackedResponse, nil
}

// ContainerListByLabels lists managed containers matching additional label filters.
func (e *Engine) ContainerListByLabels(ctx context.Context, labels map[string]string, all bool) ([]ContainerSummary, error) {
	f := MergeLabelFilters(e.newManagedFilter(), labels)
	result, err := e.APIClient.ContainerList(ctx, client.ContainerListOptions{
		All:     all,
		Filters: f,
	})
	if err != nil {
		return nil, ErrContainerListFailed(err)
	}
	return result.Items, nil
}

// IsContainerManaged checks if a container has the managed label.
func (e *Engine) IsContainerManaged(ctx context.Context, containerID string) (bool, error) {
	info, err := e.APIClient.ContainerInspect(ctx, containerID, client.ContainerInspectOptions{})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return e.isManagedLabelPresent(info.Container.Config), nil
}

func (e *Engine) isManagedLabelPresent(cfg *container.Config) bool {
	if cfg == nil {
		return false
	}
	val, ok := cfg.Labels[e.managedLabelKey]
	return ok && val == e.managedLabelValue
}

// requireManaged returns ErrContainerNotFound for unmanaged containers and
// wraps lookup failures with the operation's error constructor.
func (e *Engine) requireManaged(ctx context.Context, containerID string, wrap func(string, error) *DockerError) error {
	isManaged, err := e.IsContainerManaged(ctx, containerID)
	if err != nil {
		return wrap(containerID, err)
	}
	if !isManaged {
		return ErrContainerNotFound(containerID)
	}
	return nil
}
