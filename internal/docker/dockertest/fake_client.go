// Package dockertest provides test doubles for internal/docker.Client.
//
// It composes whailtest.FakeAPIClient into a real *docker.Client, so
// docker-layer methods (ListFixtures, PruneFixtures) and fixture handles
// execute real code through the whail jail.
//
// Usage:
//
//	fake := dockertest.NewFakeClient()
//	fake.SetupContainerList(dockertest.ContainerFixture("alpine:3", "web"))
//	containers, err := fake.Client.ListFixtures(ctx, "", true)
//
//	fake.AssertCalled(t, "ContainerList")
package dockertest

import (
	"context"
	"testing"

	"github.com/moby/moby/api/types/container"
	moby "github.com/moby/moby/client"

	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/pkg/whail"
	"github.com/schmitthub/ctfdocker/pkg/whail/whailtest"
)

// managedLabelKey is the managed label key production clients use.
var managedLabelKey = docker.DefaultLabelPrefix + "." + docker.EngineManagedLabel

// FakeClient wraps a real *docker.Client backed by a whailtest.FakeAPIClient.
// Configure behavior via FakeAPI's Fn fields; pass Client to code under test.
type FakeClient struct {
	// Client is the real *docker.Client to inject into command Options.
	Client *docker.Client

	// FakeAPI is the underlying function-field fake.
	FakeAPI *whailtest.FakeAPIClient
}

// NewFakeClient constructs a FakeClient with the production label prefix.
// ContainerInspect answers with a managed, stopped container so that the
// whail jail admits every container the test addresses.
func NewFakeClient() *FakeClient {
	fakeAPI := whailtest.NewFakeAPIClient()
	engine := whail.NewFromExisting(fakeAPI, whail.EngineOptions{
		LabelPrefix:  docker.DefaultLabelPrefix,
		ManagedLabel: docker.EngineManagedLabel,
	})

	fakeAPI.ContainerInspectFn = func(_ context.Context, id string, _ moby.ContainerInspectOptions) (moby.ContainerInspectResult, error) {
		return ManagedInspect(id, false), nil
	}

	return &FakeClient{
		Client:  docker.NewClientFromEngine(engine),
		FakeAPI: fakeAPI,
	}
}

// ManagedInspect returns an inspect result for a managed container.
func ManagedInspect(id string, running bool) moby.ContainerInspectResult {
	return moby.ContainerInspectResult{
		Container: container.InspectResponse{
			ID: id,
			Config: &container.Config{
				Labels: map[string]string{managedLabelKey: "true"},
			},
			State: &container.State{Running: running},
		},
	}
}

// AssertCalled asserts that the given method was called at least once.
func (f *FakeClient) AssertCalled(t *testing.T, method string) {
	t.Helper()
	whailtest.AssertCalled(t, f.FakeAPI, method)
}

// AssertNotCalled asserts that the given method was never called.
func (f *FakeClient) AssertNotCalled(t *testing.T, method string) {
	t.Helper()
	whailtest.AssertNotCalled(t, f.FakeAPI, method)
}

// AssertCalledN asserts that the given method was called exactly n times.
func (f *FakeClient) AssertCalledN(t *testing.T, method string, n int) {
	t.Helper()
	whailtest.AssertCalledN(t, f.FakeAPI, method, n)
}

// Reset clears the call recording log.
func (f *FakeClient) Reset() {
	f.FakeAPI.Reset()
}
