// Package fixture manages one Docker container used as a test fixture.
//
// A Handle creates, starts, executes commands in, inspects and tears down a
// single container through an injected Engine. Configuration from several
// sources (explicit options, process-environment overrides, per-call start
// options) is merged before the container is created.
//
// Usage:
//
//	opts := fixture.DefaultOptions()
//	opts.Name = "web"
//	h := fixture.New(engine, "registry.local/app:test", opts)
//	if err := h.Start(ctx, fixture.StartOptions{}); err != nil {
//		return err
//	}
//	defer h.Stop(ctx)
//	out, err := h.Execute(ctx, []string{"cat", "/etc/os-release"}, false)
//
// A Handle has a single owner and is not safe for concurrent use.
package fixture

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/schmitthub/ctfdocker/pkg/whail"
)

// Logger is the logging surface a Handle writes to.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug() *zerolog.Event { return nil }
func (nopLogger) Info() *zerolog.Event  { return nil }
func (nopLogger) Warn() *zerolog.Event  { return nil }
func (nopLogger) Error() *zerolog.Event { return nil }

// Engine is the subset of container engine operations a Handle needs.
// *whail.Engine satisfies it.
type Engine interface {
	ContainerCreate(ctx context.Context, opts whail.ContainerCreateOptions, extraLabels ...map[string]string) (whail.ContainerCreateResult, error)
	ContainerStart(ctx context.Context, containerID string) error
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerRemove(ctx context.Context, containerID string, force bool) error
	ContainerInspect(ctx context.Context, containerID string) (whail.ContainerInspectResult, error)
	ContainerLogs(ctx context.Context, containerID string, opts whail.ContainerLogsOptions) (io.ReadCloser, error)
	ContainerAttach(ctx context.Context, containerID string, opts whail.ContainerAttachOptions) (whail.HijackedResponse, error)
	ExecCreate(ctx context.Context, containerID string, opts whail.ExecCreateOptions) (whail.ExecCreateResult, error)
	ExecStart(ctx context.Context, execID string, opts whail.ExecStartOptions) error
	ExecAttach(ctx context.Context, execID string, opts whail.ExecAttachOptions) (whail.HijackedResponse, error)
	ExecInspect(ctx context.Context, execID string) (whail.ExecInspectResult, error)
	CopyToContainer(ctx context.Context, containerID string, opts whail.CopyToContainerOptions) error
	ImageRemove(ctx context.Context, imageID string, opts whail.ImageRemoveOptions) (whail.ImageRemoveResult, error)
}

var _ Engine = (*whail.Engine)(nil)

// Overrides carries configuration read from the process environment by the
// caller (CTF_DOCKER_VOLUMES and CTF_DOCKER_ENV).
type Overrides struct {
	// Volumes are appended after Options.Volumes.
	Volumes []string
	// Env is overlaid on Options.Environ.
	Env map[string]string
}

// Options configures a Handle.
type Options struct {
	// Name labels the fixture. It prefixes the persisted log file name and
	// the Docker container name.
	Name string

	// OutputDir receives <name>_<id>.txt at Stop when SaveOutput is set.
	OutputDir string
	// SaveOutput persists container logs at Stop. New does not default it;
	// start from DefaultOptions to get it enabled.
	SaveOutput bool
	// RemoveImage removes the backing image at the end of Use.
	RemoveImage bool

	// Volumes are bind specs of the form hostPath:containerPath[:mode], or a
	// bare containerPath for an anonymous volume.
	Volumes []string
	// Entrypoint overrides the image entrypoint when non-empty.
	Entrypoint []string
	// Environ is the instance environment.
	Environ map[string]string
	// Overrides holds process-environment sourced additions.
	Overrides Overrides

	// Labels are put on the created container in addition to the engine's.
	Labels map[string]string
	// ContainerName overrides the generated Docker container name.
	ContainerName string

	// Start is used by Use.
	Start StartOptions

	// Logger defaults to a nop logger.
	Logger Logger

	// ExecPollAttempts and ExecPollInterval bound exit code polling in Execute.
	ExecPollAttempts int
	ExecPollInterval time.Duration

	// RemoveAttempts and RemoveRetryDelay bound container removal in Stop.
	RemoveAttempts   int
	RemoveRetryDelay time.Duration
}

// Defaults applied to zero-valued Options fields.
const (
	DefaultOutputDir        = "output"
	DefaultExecPollAttempts = 15
	DefaultExecPollInterval = time.Second
	DefaultRemoveAttempts   = 4
	DefaultRemoveRetryDelay = 20 * time.Second
)

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		OutputDir:        DefaultOutputDir,
		SaveOutput:       true,
		ExecPollAttempts: DefaultExecPollAttempts,
		ExecPollInterval: DefaultExecPollInterval,
		RemoveAttempts:   DefaultRemoveAttempts,
		RemoveRetryDelay: DefaultRemoveRetryDelay,
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
