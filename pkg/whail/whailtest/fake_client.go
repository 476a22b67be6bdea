package whailtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/moby/moby/client"
)

// FakeAPIClient is a test double for client.APIClient using the function-field
// pattern (Docker CLI convention). Each moby method whail calls has a corresponding
// Fn field. If the field is set, the fake delegates to it and records the call.
// If the field is nil, the call panics with "not implemented: MethodName".
//
// The embedded *client.Client (nil) satisfies the rest of the APIClient
// interface. Any method not explicitly overridden here will panic on nil
// dereference, providing fail-loud behavior for unexpected calls.
type FakeAPIClient struct {
	// Embed nil *client.Client to satisfy the remaining APIClient methods.
	*client.Client

	// mu protects Calls from concurrent access.
	mu sync.Mutex

	// Calls records the method names invoked on this fake, in order.
	Calls []string

	// --- Container methods ---
	ContainerCreateFn  func(ctx context.Context, opts client.ContainerCreateOptions) (client.ContainerCreateResult, error)
	ContainerStartFn   func(ctx context.Context, container string, opts client.ContainerStartOptions) (client.ContainerStartResult, error)
	ContainerKillFn    func(ctx context.Context, container string, opts client.ContainerKillOptions) (client.ContainerKillResult, error)
	ContainerRemoveFn  func(ctx context.Context, container string, opts client.ContainerRemoveOptions) (client.ContainerRemoveResult, error)
	ContainerListFn    func(ctx context.Context, opts client.ContainerListOptions) (client.ContainerListResult, error)
	ContainerInspectFn func(ctx context.Context, container string, opts client.ContainerInspectOptions) (client.ContainerInspectResult, error)
	ContainerAttachFn  func(ctx context.Context, container string, opts client.ContainerAttachOptions) (client.ContainerAttachResult, error)
	ContainerLogsFn    func(ctx context.Context, container string, opts client.ContainerLogsOptions) (client.ContainerLogsResult, error)

	// --- Exec methods ---
	ExecCreateFn  func(ctx context.Context, container string, opts client.ExecCreateOptions) (client.ExecCreateResult, error)
	ExecStartFn   func(ctx context.Context, execID string, opts client.ExecStartOptions) (client.ExecStartResult, error)
	ExecAttachFn  func(ctx context.Context, execID string, opts client.ExecAttachOptions) (client.ExecAttachResult, error)
	ExecInspectFn func(ctx context.Context, execID string, opts client.ExecInspectOptions) (client.ExecInspectResult, error)

	// --- Copy methods ---
	CopyToContainerFn func(ctx context.Context, container string, opts client.CopyToContainerOptions) (client.CopyToContainerResult, error)

	// --- Image methods ---
	ImageRemoveFn func(ctx context.Context, image string, opts client.ImageRemoveOptions) (client.ImageRemoveResult, error)

	// --- System methods ---
	PingFn func(ctx context.Context, options client.PingOptions) (client.PingResult, error)
}

// record appends a method name to the call log (thread-safe).
func (f *FakeAPIClient) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

// notImplemented panics with a descriptive message for unset function fields.
func notImplemented(method string) {
	panic(fmt.Sprintf("not implemented: %s (set %sFn on FakeAPIClient)", method, method))
}

// Reset clears the Calls log.
func (f *FakeAPIClient) Reset() {
	f.mu.Lock()
	f.Calls = nil
	f.mu.Unlock()
}

func (f *FakeAPIClient) ContainerCreate(ctx context.Context, opts client.ContainerCreateOptions) (client.ContainerCreateResult, error) {
	if f.ContainerCreateFn == nil {
		notImplemented("ContainerCreate")
	}
	f.record("ContainerCreate")
	return f.ContainerCreateFn(ctx, opts)
}

func (f *FakeAPIClient) ContainerStart(ctx context.Context, container string, opts client.ContainerStartOptions) (client.ContainerStartResult, error) {
	if f.ContainerStartFn == nil {
		notImplemented("ContainerStart")
	}
	f.record("ContainerStart")
	return f.ContainerStartFn(ctx, container, opts)
}

func (f *FakeAPIClient) ContainerKill(ctx context.Context, container string, opts client.ContainerKillOptions) (client.ContainerKillResult, error) {
	if f.ContainerKillFn == nil {
		notImplemented("ContainerKill")
	}
	f.record("ContainerKill")
	return f.ContainerKillFn(ctx, container, opts)
}

func (f *FakeAPIClient) ContainerRemove(ctx context.Context, container string, opts client.ContainerRemoveOptions) (client.ContainerRemoveResult, error) {
	if f.ContainerRemoveFn == nil {
		notImplemented("ContainerRemove")
	}
	f.record("ContainerRemove")
	return f.ContainerRemoveFn(ctx, container, opts)
}

func (f *FakeAPIClient) ContainerList(ctx context.Context, opts client.ContainerListOptions) (client.ContainerListResult, error) {
	if f.ContainerListFn == nil {
		notImplemented("ContainerList")
	}
	f.record("ContainerList")
	return f.ContainerListFn(ctx, opts)
}

func (f *FakeAPIClient) ContainerInspect(ctx context.Context, container string, opts client.ContainerInspectOptions) (client.ContainerInspectResult, error) {
	if f.ContainerInspectFn == nil {
		notImplemented("ContainerInspect")
	}
	f.record("ContainerInspect")
	return f.ContainerInspectFn(ctx, container, opts)
}

func (f *FakeAPIClient) ContainerAttach(ctx context.Context, container string, opts client.ContainerAttachOptions) (client.ContainerAttachResult, error) {
	if f.ContainerAttachFn == nil {
		notImplemented("ContainerAttach")
	}
	f.record("ContainerAttach")
	return f.ContainerAttachFn(ctx, container, opts)
}

func (f *FakeAPIClient) ContainerLogs(ctx context.Context, container string, opts client.ContainerLogsOptions) (client.ContainerLogsResult, error) {
	if f.ContainerLogsFn == nil {
		notImplemented("ContainerLogs")
	}
	f.record("ContainerLogs")
	return f.ContainerLogsFn(ctx, container, opts)
}

func (f *FakeAPIClient) ExecCreate(ctx context.Context, container string, opts client.ExecCreateOptions) (client.ExecCreateResult, error) {
	if f.ExecCreateFn == nil {
		notImplemented("ExecCreate")
	}
	f.record("ExecCreate")
	return f.ExecCreateFn(ctx, container, opts)
}

func (f *FakeAPIClient) ExecStart(ctx context.Context, execID string, opts client.ExecStartOptions) (client.ExecStartResult, error) {
	if f.ExecStartFn == nil {
		notImplemented("ExecStart")
	}
	f.record("ExecStart")
	return f.ExecStartFn(ctx, execID, opts)
}

func (f *FakeAPIClient) ExecAttach(ctx context.Context, execID string, opts client.ExecAttachOptions) (client.ExecAttachResult, error) {
	if f.ExecAttachFn == nil {
		notImplemented("ExecAttach")
	}
	f.record("ExecAttach")
	return f.ExecAttachFn(ctx, execID, opts)
}

func (f *FakeAPIClient) ExecInspect(ctx context.Context, execID string, opts client.ExecInspectOptions) (client.ExecInspectResult, error) {
	if f.ExecInspectFn == nil {
		notImplemented("ExecInspect")
	}
	f.record("ExecInspect")
	return f.ExecInspectFn(ctx, execID, opts)
}

func (f *FakeAPIClient) CopyToContainer(ctx context.Context, container string, opts client.CopyToContainerOptions) (client.CopyToContainerResult, error) {
	if f.CopyToContainerFn == nil {
		notImplemented("CopyToContainer")
	}
	f.record("CopyToContainer")
	return f.CopyToContainerFn(ctx, container, opts)
}

func (f *FakeAPIClient) ImageRemove(ctx context.Context, image string, opts client.ImageRemoveOptions) (client.ImageRemoveResult, error) {
	if f.ImageRemoveFn == nil {
		notImplemented("ImageRemove")
	}
	f.record("ImageRemove")
	return f.ImageRemoveFn(ctx, image, opts)
}

func (f *FakeAPIClient) Ping(ctx context.Context, options client.PingOptions) (client.PingResult, error) {
	if f.PingFn == nil {
		notImplemented("Ping")
	}
	f.record("Ping")
	return f.PingFn(ctx, options)
}

// Close is a no-op so engines wrapping the fake can be closed in tests.
func (f *FakeAPIClient) Close() error {
	f.record("Close")
	return nil
}
