package whailtest

import (
	"context"
	"io"
	"net"
	"slices"
	"strings"
	"testing"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/schmitthub/ctfdocker/pkg/whail"
)

const (
	// TestLabelPrefix is the label prefix used by test engines.
	TestLabelPrefix = "com.whailtest"

	// TestManagedLabel is the managed label suffix used by test engines.
	TestManagedLabel = "managed"
)

// testManagedLabelKey is the full managed label key for test engines.
var testManagedLabelKey = TestLabelPrefix + "." + TestManagedLabel

// TestEngineOptions returns EngineOptions configured for unit testing.
func TestEngineOptions() whail.EngineOptions {
	return whail.EngineOptions{
		LabelPrefix:  TestLabelPrefix,
		ManagedLabel: TestManagedLabel,
	}
}

// NewFakeAPIClient creates a FakeAPIClient with sensible defaults.
// The default ContainerInspect returns a managed container so that whail's
// internal IsManaged checks pass transparently.
func NewFakeAPIClient() *FakeAPIClient {
	f := &FakeAPIClient{}

	f.ContainerInspectFn = func(_ context.Context, id string, _ client.ContainerInspectOptions) (client.ContainerInspectResult, error) {
		return ManagedContainerInspect(id), nil
	}

	return f
}

// --- Managed resource factories ---

// ManagedContainerInspect returns a ContainerInspectResult with managed labels set.
func ManagedContainerInspect(id string) client.ContainerInspectResult {
	return client.ContainerInspectResult{
		Container: container.InspectResponse{
			ID: id,
			Config: &container.Config{
				Labels: map[string]string{
					testManagedLabelKey: "true",
				},
			},
			State: &container.State{},
		},
	}
}

// UnmanagedContainerInspect returns a ContainerInspectResult without managed labels.
func UnmanagedContainerInspect(id string) client.ContainerInspectResult {
	return client.ContainerInspectResult{
		Container: container.InspectResponse{
			ID: id,
			Config: &container.Config{
				Labels: map[string]string{},
			},
		},
	}
}

// --- Stream helpers ---

// MultiplexedStream returns the stdcopy framing of stdout followed by stderr,
// the format the daemon uses for non-TTY attach and log streams.
func MultiplexedStream(stdout, stderr string) []byte {
	var b strings.Builder
	if stdout != "" {
		_, _ = stdcopy.NewStdWriter(&b, stdcopy.Stdout).Write([]byte(stdout))
	}
	if stderr != "" {
		_, _ = stdcopy.NewStdWriter(&b, stdcopy.Stderr).Write([]byte(stderr))
	}
	return []byte(b.String())
}

// FakeHijackedResponse returns a HijackedResponse backed by a net.Pipe. The
// server side writes data and closes, so readers get the data then EOF.
func FakeHijackedResponse(data []byte) client.HijackedResponse {
	clientConn, serverConn := net.Pipe()
	go func() {
		defer serverConn.Close()
		_, _ = serverConn.Write(data)
	}()
	return client.NewHijackedResponse(clientConn, "application/vnd.docker.multiplexed-stream")
}

// FakeLogs returns a ContainerLogsResult streaming data.
func FakeLogs(data []byte) client.ContainerLogsResult {
	return io.NopCloser(strings.NewReader(string(data)))
}

// --- Assertion helpers ---

// AssertCalled fails the test if the given method was not called on the fake.
func AssertCalled(t *testing.T, fake *FakeAPIClient, method string) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !slices.Contains(fake.Calls, method) {
		t.Errorf("expected %s to be called, but it was not; calls: %v", method, fake.Calls)
	}
}

// AssertNotCalled fails the test if the given method was called on the fake.
func AssertNotCalled(t *testing.T, fake *FakeAPIClient, method string) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if slices.Contains(fake.Calls, method) {
		t.Errorf("expected %s to NOT be called, but it was; calls: %v", method, fake.Calls)
	}
}

// AssertCalledN fails the test if the given method was not called exactly n times.
func AssertCalledN(t *testing.T, fake *FakeAPIClient, method string, n int) {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	count := 0
	for _, c := range fake.Calls {
		if c == method {
			count++
		}
	}
	if count != n {
		t.Errorf("expected %s to be called %d times, but was called %d times; calls: %v", method, n, count, fake.Calls)
	}
}
