// Package whailtest provides a fake moby APIClient for exercising whail.Engine
// and everything built on it without a running daemon.
//
// FakeAPIClient has one Fn field per method the fixture layer calls. A nil Fn
// panics with "not implemented", so a test only wires the calls it expects:
//
//	fake := whailtest.NewFakeAPIClient()
//	engine := whail.NewFromExisting(fake, whailtest.TestEngineOptions())
//	fake.ExecInspectFn = func(ctx context.Context, execID string, _ client.ExecInspectOptions) (client.ExecInspectResult, error) {
//	    return client.ExecInspectResult{ID: execID, ExitCode: 0}, nil
//	}
//
//	whailtest.AssertCalled(t, fake, "ExecInspect")
package whailtest
