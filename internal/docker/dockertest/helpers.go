package dockertest

import (
	"context"
	"fmt"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/pkg/whail/whailtest"
)

var labels = docker.Labels{Prefix: docker.DefaultLabelPrefix}

// ContainerFixture builds a container.Summary with ctfdocker labels.
// The container is in "exited" state.
func ContainerFixture(image, fixture string) container.Summary {
	name := docker.ContainerName(fixture)
	l := labels.Container(image, fixture)
	l[managedLabelKey] = "true"
	return container.Summary{
		ID:     "sha256:" + name + "-fake-id",
		Names:  []string{"/" + name},
		Image:  image,
		State:  "exited",
		Labels: l,
	}
}

// RunningContainerFixture is ContainerFixture in "running" state.
func RunningContainerFixture(image, fixture string) container.Summary {
	c := ContainerFixture(image, fixture)
	c.State = "running"
	return c
}

// SetupContainerList configures ContainerList to return containers.
func (f *FakeClient) SetupContainerList(containers ...container.Summary) {
	f.FakeAPI.ContainerListFn = func(_ context.Context, _ client.ContainerListOptions) (client.ContainerListResult, error) {
		return client.ContainerListResult{Items: containers}, nil
	}
}

// SetupContainerListError configures ContainerList to fail with err.
func (f *FakeClient) SetupContainerListError(err error) {
	f.FakeAPI.ContainerListFn = func(_ context.Context, _ client.ContainerListOptions) (client.ContainerListResult, error) {
		return client.ContainerListResult{}, err
	}
}

// SetupContainerCreate configures ContainerCreate to return id. Each request
// is handed to capture when it is non-nil.
func (f *FakeClient) SetupContainerCreate(id string, capture func(client.ContainerCreateOptions)) {
	f.FakeAPI.ContainerCreateFn = func(_ context.Context, opts client.ContainerCreateOptions) (client.ContainerCreateResult, error) {
		if capture != nil {
			capture(opts)
		}
		return client.ContainerCreateResult{ID: id}, nil
	}
}

// SetupContainerStart configures ContainerStart to succeed.
func (f *FakeClient) SetupContainerStart() {
	f.FakeAPI.ContainerStartFn = func(_ context.Context, _ string, _ client.ContainerStartOptions) (client.ContainerStartResult, error) {
		return client.ContainerStartResult{}, nil
	}
}

// SetupContainerKill configures ContainerKill to succeed.
func (f *FakeClient) SetupContainerKill() {
	f.FakeAPI.ContainerKillFn = func(_ context.Context, _ string, _ client.ContainerKillOptions) (client.ContainerKillResult, error) {
		return client.ContainerKillResult{}, nil
	}
}

// SetupContainerRemove configures ContainerRemove to succeed.
func (f *FakeClient) SetupContainerRemove() {
	f.FakeAPI.ContainerRemoveFn = func(_ context.Context, _ string, _ client.ContainerRemoveOptions) (client.ContainerRemoveResult, error) {
		return client.ContainerRemoveResult{}, nil
	}
}

// SetupContainerRemoveError configures ContainerRemove to fail for the given IDs.
func (f *FakeClient) SetupContainerRemoveError(err error, ids ...string) {
	failing := make(map[string]bool, len(ids))
	for _, id := range ids {
		failing[id] = true
	}
	f.FakeAPI.ContainerRemoveFn = func(_ context.Context, id string, _ client.ContainerRemoveOptions) (client.ContainerRemoveResult, error) {
		if failing[id] {
			return client.ContainerRemoveResult{}, err
		}
		return client.ContainerRemoveResult{}, nil
	}
}

// SetupContainerLogs configures ContainerLogs to stream stdout and stderr in
// the daemon's multiplexed format.
func (f *FakeClient) SetupContainerLogs(stdout, stderr string) {
	f.FakeAPI.ContainerLogsFn = func(_ context.Context, _ string, _ client.ContainerLogsOptions) (client.ContainerLogsResult, error) {
		return whailtest.FakeLogs(whailtest.MultiplexedStream(stdout, stderr)), nil
	}
}

// SetupExecCreate configures ExecCreate to return execID.
func (f *FakeClient) SetupExecCreate(execID string) {
	f.FakeAPI.ExecCreateFn = func(_ context.Context, _ string, _ client.ExecCreateOptions) (client.ExecCreateResult, error) {
		return client.ExecCreateResult{ID: execID}, nil
	}
}

// SetupExecStart configures ExecStart to succeed.
func (f *FakeClient) SetupExecStart() {
	f.FakeAPI.ExecStartFn = func(_ context.Context, _ string, _ client.ExecStartOptions) (client.ExecStartResult, error) {
		return client.ExecStartResult{}, nil
	}
}

// SetupExecAttachWithOutput configures ExecAttach to stream stdout.
func (f *FakeClient) SetupExecAttachWithOutput(stdout string) {
	f.FakeAPI.ExecAttachFn = func(_ context.Context, _ string, _ client.ExecAttachOptions) (client.ExecAttachResult, error) {
		return client.ExecAttachResult{
			HijackedResponse: whailtest.FakeHijackedResponse(whailtest.MultiplexedStream(stdout, "")),
		}, nil
	}
}

// SetupExecInspect configures ExecInspect to report a finished exec.
func (f *FakeClient) SetupExecInspect(exitCode int) {
	f.FakeAPI.ExecInspectFn = func(_ context.Context, execID string, _ client.ExecInspectOptions) (client.ExecInspectResult, error) {
		return client.ExecInspectResult{ID: execID, ExitCode: exitCode}, nil
	}
}

// SetupCopyToContainer configures CopyToContainer to succeed.
func (f *FakeClient) SetupCopyToContainer() {
	f.FakeAPI.CopyToContainerFn = func(_ context.Context, _ string, _ client.CopyToContainerOptions) (client.CopyToContainerResult, error) {
		return client.CopyToContainerResult{}, nil
	}
}

// SetupImageRemove configures ImageRemove to succeed.
func (f *FakeClient) SetupImageRemove() {
	f.FakeAPI.ImageRemoveFn = func(_ context.Context, _ string, _ client.ImageRemoveOptions) (client.ImageRemoveResult, error) {
		return client.ImageRemoveResult{}, nil
	}
}

// SetupFixtureLifecycle wires everything a fixture run touches: create,
// start, a single exec printing stdout and exiting with exitCode, logs and
// removal.
func (f *FakeClient) SetupFixtureLifecycle(containerID, stdout string, exitCode int) {
	f.SetupContainerCreate(containerID, nil)
	f.SetupContainerStart()
	f.SetupContainerKill()
	f.SetupContainerRemove()
	f.SetupContainerLogs("", "")
	f.SetupExecCreate(fmt.Sprintf("exec-%s", containerID))
	f.SetupExecStart()
	f.SetupExecAttachWithOutput(stdout)
	f.SetupExecInspect(exitCode)
	f.SetupCopyToContainer()
	f.SetupImageRemove()
}
