package whail_test

import (
	"context"
	"errors"
	"testing"

	"github.com/moby/moby/client"

	"github.com/schmitthub/ctfdocker/pkg/whail"
	"github.com/schmitthub/ctfdocker/pkg/whail/whailtest"
)

func TestHealthCheck(t *testing.T) {
	fake := whailtest.NewFakeAPIClient()
	fake.PingFn = func(_ context.Context, _ client.PingOptions) (client.PingResult, error) {
		return client.PingResult{}, nil
	}
	eng := whail.NewFromExisting(fake, whailtest.TestEngineOptions())

	if err := eng.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
	whailtest.AssertCalled(t, fake, "Ping")
}

func TestHealthCheck_DaemonDown(t *testing.T) {
	fake := whailtest.NewFakeAPIClient()
	fake.PingFn = func(_ context.Context, _ client.PingOptions) (client.PingResult, error) {
		return client.PingResult{}, errors.New("connection refused")
	}
	eng := whail.NewFromExisting(fake, whailtest.TestEngineOptions())

	err := eng.HealthCheck(context.Background())
	var dockerErr *whail.DockerError
	if !errors.As(err, &dockerErr) {
		t.Fatalf("expected *whail.DockerError, got %T: %v", err, err)
	}
	if dockerErr.Op != "connect" {
		t.Errorf("Op = %q, want %q", dockerErr.Op, "connect")
	}
}

func TestManagedLabelAccessors(t *testing.T) {
	eng := whail.NewFromExisting(whailtest.NewFakeAPIClient(), whail.EngineOptions{LabelPrefix: "com.example"})

	if key := eng.ManagedLabelKey(); key != "com.example."+whail.DefaultManagedLabel {
		t.Errorf("ManagedLabelKey() = %q, want %q", key, "com.example.managed")
	}
	if value := eng.ManagedLabelValue(); value != "true" {
		t.Errorf("ManagedLabelValue() = %q, want %q", value, "true")
	}
	if eng.Options().ManagedLabel != whail.DefaultManagedLabel {
		t.Errorf("Options().ManagedLabel = %q, want default", eng.Options().ManagedLabel)
	}
}

func TestEngineClose(t *testing.T) {
	fake := whailtest.NewFakeAPIClient()
	eng := whail.NewFromExisting(fake, whailtest.TestEngineOptions())

	if err := eng.Close(); err != nil {
		t.Errorf("Engine Close() failed: %v", err)
	}
	whailtest.AssertCalled(t, fake, "Close")
}
