package whail

import (
	"context"

	"github.com/moby/moby/client"
)

// ExecCreate creates an exec instance in a managed container.
func (e *Engine) ExecCreate(ctx context.Context, containerID string, opts ExecCreateOptions) (ExecCreateResult, error) {
	if err := e.requireManaged(ctx, containerID, ErrContainerExecFailed); err != nil {
		return ExecCreateResult{}, err
	}
	resp, err := e.APIClient.ExecCreate(ctx, containerID, opts)
	if err != nil {
		return ExecCreateResult{}, ErrContainerExecFailed(containerID, err)
	}
	return resp, nil
}

// ExecStart starts an exec instance without attaching to its streams.
func (e *Engine) ExecStart(ctx context.Context, execID string, opts ExecStartOptions) error {
	if _, err := e.APIClient.ExecStart(ctx, execID, opts); err != nil {
		return ErrContainerExecFailed(execID, err)
	}
	return nil
}

// ExecAttach starts an exec instance and attaches to its streams.
// The caller is responsible for closing the returned response.
func (e *Engine) ExecAttach(ctx context.Context, execID string, opts ExecAttachOptions) (HijackedResponse, error) {
	resp, err := e.APIClient.ExecAttach(ctx, execID, opts)
	if err != nil {
		return HijackedResponse{}, ErrExecAttachFailed(execID, err)
	}
	return resp.HijackedResponse, nil
}

// ExecInspect returns the state of an exec instance.
func (e *Engine) ExecInspect(ctx context.Context, execID string) (ExecInspectResult, error) {
	resp, err := e.APIClient.ExecInspect(ctx, execID, client.ExecInspectOptions{})
	if err != nil {
		return ExecInspectResult{}, ErrExecInspectFailed(execID, err)
	}
	return resp, nil
}
