// Package fixturetest provides a function-field fake of fixture.Engine.
//
// Each method delegates to its Fn field and records the call name. A nil Fn
// panics so that unexpected engine calls fail loudly. NewFakeEngine wires
// defaults that model a healthy daemon.
package fixturetest

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"slices"
	"sync"
	"testing"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"

	"github.com/schmitthub/ctfdocker/pkg/fixture"
	"github.com/schmitthub/ctfdocker/pkg/whail"
	"github.com/schmitthub/ctfdocker/pkg/whail/whailtest"
)

// Default identifiers returned by NewFakeEngine.
const (
	ContainerID = "fake-container-0123456789"
	ExecID      = "fake-exec"
	IPAddress   = "172.17.0.2"
)

// FakeEngine is a test double for fixture.Engine.
type FakeEngine struct {
	mu    sync.Mutex
	Calls []string

	ContainerCreateFn  func(ctx context.Context, opts whail.ContainerCreateOptions, extraLabels ...map[string]string) (whail.ContainerCreateResult, error)
	ContainerStartFn   func(ctx context.Context, containerID string) error
	ContainerKillFn    func(ctx context.Context, containerID, signal string) error
	ContainerRemoveFn  func(ctx context.Context, containerID string, force bool) error
	ContainerInspectFn func(ctx context.Context, containerID string) (whail.ContainerInspectResult, error)
	ContainerLogsFn    func(ctx context.Context, containerID string, opts whail.ContainerLogsOptions) (io.ReadCloser, error)
	ContainerAttachFn  func(ctx context.Context, containerID string, opts whail.ContainerAttachOptions) (whail.HijackedResponse, error)
	ExecCreateFn       func(ctx context.Context, containerID string, opts whail.ExecCreateOptions) (whail.ExecCreateResult, error)
	ExecStartFn        func(ctx context.Context, execID string, opts whail.ExecStartOptions) error
	ExecAttachFn       func(ctx context.Context, execID string, opts whail.ExecAttachOptions) (whail.HijackedResponse, error)
	ExecInspectFn      func(ctx context.Context, execID string) (whail.ExecInspectResult, error)
	CopyToContainerFn  func(ctx context.Context, containerID string, opts whail.CopyToContainerOptions) error
	ImageRemoveFn      func(ctx context.Context, imageID string, opts whail.ImageRemoveOptions) (whail.ImageRemoveResult, error)
}

var _ fixture.Engine = (*FakeEngine)(nil)

// NewFakeEngine returns a FakeEngine whose container starts, runs with
// IPAddress on the bridge network, produces no logs, and whose commands exit 0
// without output.
func NewFakeEngine() *FakeEngine {
	f := &FakeEngine{}
	f.ContainerCreateFn = func(_ context.Context, _ whail.ContainerCreateOptions, _ ...map[string]string) (whail.ContainerCreateResult, error) {
		return whail.ContainerCreateResult{ID: ContainerID}, nil
	}
	f.ContainerStartFn = func(context.Context, string) error { return nil }
	f.ContainerKillFn = func(context.Context, string, string) error { return nil }
	f.ContainerRemoveFn = func(context.Context, string, bool) error { return nil }
	f.ContainerInspectFn = func(_ context.Context, id string) (whail.ContainerInspectResult, error) {
		return RunningContainer(id), nil
	}
	f.ContainerLogsFn = func(context.Context, string, whail.ContainerLogsOptions) (io.ReadCloser, error) {
		return whailtest.FakeLogs(nil), nil
	}
	f.ExecCreateFn = func(context.Context, string, whail.ExecCreateOptions) (whail.ExecCreateResult, error) {
		return whail.ExecCreateResult{ID: ExecID}, nil
	}
	f.ExecStartFn = func(context.Context, string, whail.ExecStartOptions) error { return nil }
	f.ExecAttachFn = func(context.Context, string, whail.ExecAttachOptions) (whail.HijackedResponse, error) {
		return whailtest.FakeHijackedResponse(nil), nil
	}
	f.ExecInspectFn = func(_ context.Context, id string) (whail.ExecInspectResult, error) {
		return whail.ExecInspectResult{ID: id, ExitCode: 0}, nil
	}
	f.CopyToContainerFn = func(context.Context, string, whail.CopyToContainerOptions) error { return nil }
	f.ImageRemoveFn = func(context.Context, string, whail.ImageRemoveOptions) (whail.ImageRemoveResult, error) {
		return whail.ImageRemoveResult{}, nil
	}
	return f
}

// RunningContainer returns an inspect result for a running container
// attached to the bridge network at IPAddress.
func RunningContainer(id string) whail.ContainerInspectResult {
	return whail.ContainerInspectResult{
		Container: container.InspectResponse{
			ID:     id,
			Config: &container.Config{},
			State:  &container.State{Running: true},
			NetworkSettings: &container.NetworkSettings{
				Networks: map[string]*network.EndpointSettings{
					"bridge": {IPAddress: netip.MustParseAddr(IPAddress)},
				},
			},
		},
	}
}

// StoppedContainer returns an inspect result for an exited container.
func StoppedContainer(id string) whail.ContainerInspectResult {
	return whail.ContainerInspectResult{
		Container: container.InspectResponse{
			ID:     id,
			Config: &container.Config{},
			State:  &container.State{Running: false},
		},
	}
}

func (f *FakeEngine) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

func notImplemented(method string) {
	panic(fmt.Sprintf("not implemented: %s (set %sFn on FakeEngine)", method, method))
}

// CallCount returns how many times method was called.
func (f *FakeEngine) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

// AssertCalled fails the test if method was never called.
func (f *FakeEngine) AssertCalled(t *testing.T, method string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.Calls, method) {
		t.Errorf("expected %s to be called, but it was not; calls: %v", method, f.Calls)
	}
}

// AssertNotCalled fails the test if method was called.
func (f *FakeEngine) AssertNotCalled(t *testing.T, method string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.Calls, method) {
		t.Errorf("expected %s to NOT be called, but it was; calls: %v", method, f.Calls)
	}
}

func (f *FakeEngine) ContainerCreate(ctx context.Context, opts whail.ContainerCreateOptions, extraLabels ...map[string]string) (whail.ContainerCreateResult, error) {
	if f.ContainerCreateFn == nil {
		notImplemented("ContainerCreate")
	}
	f.record("ContainerCreate")
	return f.ContainerCreateFn(ctx, opts, extraLabels...)
}

func (f *FakeEngine) ContainerStart(ctx context.Context, containerID string) error {
	if f.ContainerStartFn == nil {
		notImplemented("ContainerStart")
	}
	f.record("ContainerStart")
	return f.ContainerStartFn(ctx, containerID)
}

func (f *FakeEngine) ContainerKill(ctx context.Context, containerID, signal string) error {
	if f.ContainerKillFn == nil {
		notImplemented("ContainerKill")
	}
	f.record("ContainerKill")
	return f.ContainerKillFn(ctx, containerID, signal)
}

func (f *FakeEngine) ContainerRemove(ctx context.Context, containerID string, force bool) error {
	if f.ContainerRemoveFn == nil {
		notImplemented("ContainerRemove")
	}
	f.record("ContainerRemove")
	return f.ContainerRemoveFn(ctx, containerID, force)
}

func (f *FakeEngine) ContainerInspect(ctx context.Context, containerID string) (whail.ContainerInspectResult, error) {
	if f.ContainerInspectFn == nil {
		notImplemented("ContainerInspect")
	}
	f.record("ContainerInspect")
	return f.ContainerInspectFn(ctx, containerID)
}

func (f *FakeEngine) ContainerLogs(ctx context.Context, containerID string, opts whail.ContainerLogsOptions) (io.ReadCloser, error) {
	if f.ContainerLogsFn == nil {
		notImplemented("ContainerLogs")
	}
	f.record("ContainerLogs")
	return f.ContainerLogsFn(ctx, containerID, opts)
}

func (f *FakeEngine) ContainerAttach(ctx context.Context, containerID string, opts whail.ContainerAttachOptions) (whail.HijackedResponse, error) {
	if f.ContainerAttachFn == nil {
		notImplemented("ContainerAttach")
	}
	f.record("ContainerAttach")
	return f.ContainerAttachFn(ctx, containerID, opts)
}

func (f *FakeEngine) ExecCreate(ctx context.Context, containerID string, opts whail.ExecCreateOptions) (whail.ExecCreateResult, error) {
	if f.ExecCreateFn == nil {
		notImplemented("ExecCreate")
	}
	f.record("ExecCreate")
	return f.ExecCreateFn(ctx, containerID, opts)
}

func (f *FakeEngine) ExecStart(ctx context.Context, execID string, opts whail.ExecStartOptions) error {
	if f.ExecStartFn == nil {
		notImplemented("ExecStart")
	}
	f.record("ExecStart")
	return f.ExecStartFn(ctx, execID, opts)
}

func (f *FakeEngine) ExecAttach(ctx context.Context, execID string, opts whail.ExecAttachOptions) (whail.HijackedResponse, error) {
	if f.ExecAttachFn == nil {
		notImplemented("ExecAttach")
	}
	f.record("ExecAttach")
	return f.ExecAttachFn(ctx, execID, opts)
}

func (f *FakeEngine) ExecInspect(ctx context.Context, execID string) (whail.ExecInspectResult, error) {
	if f.ExecInspectFn == nil {
		notImplemented("ExecInspect")
	}
	f.record("ExecInspect")
	return f.ExecInspectFn(ctx, execID)
}

func (f *FakeEngine) CopyToContainer(ctx context.Context, containerID string, opts whail.CopyToContainerOptions) error {
	if f.CopyToContainerFn == nil {
		notImplemented("CopyToContainer")
	}
	f.record("CopyToContainer")
	return f.CopyToContainerFn(ctx, containerID, opts)
}

func (f *FakeEngine) ImageRemove(ctx context.Context, imageID string, opts whail.ImageRemoveOptions) (whail.ImageRemoveResult, error) {
	if f.ImageRemoveFn == nil {
		notImplemented("ImageRemove")
	}
	f.record("ImageRemove")
	return f.ImageRemoveFn(ctx, imageID, opts)
}
