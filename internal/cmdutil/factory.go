package cmdutil

import (
	"context"

	"github.com/schmitthub/ctfdocker/internal/config"
	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/internal/iostreams"
	"github.com/schmitthub/ctfdocker/pkg/fixture"
)

// Factory provides shared dependencies for CLI commands.
// The struct defines what dependencies exist, while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir    string
	ConfigFile string
	Debug      bool

	// Version info (set at build time via ldflags)
	Version string

	IOStreams *iostreams.IOStreams

	Client      func(context.Context) (*docker.Client, error)
	CloseClient func()

	Settings func() (*config.Settings, error)

	// Overrides returns the CTF_DOCKER_* process-environment overrides.
	Overrides func() fixture.Overrides
}
