package whail

import (
	"context"

	"github.com/moby/moby/client"
)

// EngineOptions configures the behavior of the Engine.
type EngineOptions struct {
	// LabelPrefix is the prefix for all managed labels (e.g., "com.myapp").
	// Used to construct the managed label key: "{LabelPrefix}.{ManagedLabel}".
	LabelPrefix string

	// ManagedLabel is the label key suffix that marks resources as managed.
	// Default: "managed". Combined with LabelPrefix to form the full key.
	ManagedLabel string

	// Host overrides the daemon address (e.g., "unix:///var/run/docker.sock").
	// Empty means DOCKER_HOST or the platform default.
	Host string

	// Labels configures labels applied to created containers.
	Labels LabelConfig
}

// DefaultManagedLabel is the default label suffix for marking managed resources.
const DefaultManagedLabel = "managed"

// Engine wraps the Docker client with automatic label-based resource isolation.
// Containers created through the Engine carry the managed label, and every
// operation addressing a container by ID refuses containers without it.
type Engine struct {
	client.APIClient
	options EngineOptions

	managedLabelKey   string // e.g., "com.myapp.managed"
	managedLabelValue string // always "true"
}

// New creates a new Engine with the given options.
// It connects to the Docker daemon and verifies the connection.
func New(ctx context.Context, opts EngineOptions) (*Engine, error) {
	clientOpts := []client.Opt{client.FromEnv}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}
	clientOpts = append(clientOpts, client.WithAPIVersionNegotiation())

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, ErrDockerNotRunning(err)
	}

	engine := NewFromExisting(cli, opts)

	if err := engine.HealthCheck(ctx); err != nil {
		cli.Close()
		return nil, err
	}

	return engine, nil
}

// NewFromExisting wraps an existing APIClient. No connection check is made,
// which makes it the constructor of choice for tests using a fake client.
func NewFromExisting(api client.APIClient, opts EngineOptions) *Engine {
	if opts.ManagedLabel == "" {
		opts.ManagedLabel = DefaultManagedLabel
	}
	return &Engine{
		APIClient:         api,
		options:           opts,
		managedLabelKey:   opts.LabelPrefix + "." + opts.ManagedLabel,
		managedLabelValue: "true",
	}
}

// HealthCheck verifies the Docker daemon is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	if _, err := e.APIClient.Ping(ctx, client.PingOptions{}); err != nil {
		return ErrDockerNotRunning(err)
	}
	return nil
}

// Close releases Docker client resources.
func (e *Engine) Close() error {
	return e.APIClient.Close()
}

// Options returns the engine options.
func (e *Engine) Options() EngineOptions {
	return e.options
}

// ManagedLabelKey returns the full managed label key (e.g., "com.myapp.managed").
func (e *Engine) ManagedLabelKey() string {
	return e.managedLabelKey
}

// ManagedLabelValue returns the managed label value (always "true").
func (e *Engine) ManagedLabelValue() string {
	return e.managedLabelValue
}

// newManagedFilter creates a new filter with just the managed label.
func (e *Engine) newManagedFilter() client.Filters {
	return LabelFilter(e.managedLabelKey, e.managedLabelValue)
}

// managedLabels returns the base labels that mark a resource as managed.
func (e *Engine) managedLabels() map[string]string {
	return map[string]string{
		e.managedLabelKey: e.managedLabelValue,
	}
}
