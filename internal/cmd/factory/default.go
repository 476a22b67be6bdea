package factory

import (
	"context"
	"os"
	"sync"

	"github.com/muesli/termenv"

	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/config"
	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/internal/iostreams"
	"github.com/schmitthub/ctfdocker/internal/logger"
	"github.com/schmitthub/ctfdocker/pkg/fixture"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (internal/ctfdocker/cmd.go).
// Tests should NOT import this package; construct &cmdutil.Factory{} directly.
func New(version string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()
	// NO_COLOR and CLICOLOR=0 win over terminal detection.
	if termenv.EnvNoColor() {
		ios.SetColorEnabled(false)
	}

	f := &cmdutil.Factory{
		Version:   version,
		IOStreams: ios,
	}
	if wd, err := os.Getwd(); err == nil {
		f.WorkDir = wd
	}

	// Settings
	var (
		settingsOnce sync.Once
		settings     *config.Settings
		settingsErr  error
	)
	f.Settings = func() (*config.Settings, error) {
		settingsOnce.Do(func() {
			loader := config.NewLoader(f.WorkDir)
			if f.ConfigFile != "" {
				loader = loader.WithConfigFile(f.ConfigFile)
			}
			settings, settingsErr = loader.Load()
		})
		return settings, settingsErr
	}

	// Docker client
	var (
		clientOnce sync.Once
		client     *docker.Client
		clientErr  error
	)
	f.Client = func(ctx context.Context) (*docker.Client, error) {
		clientOnce.Do(func() {
			s, err := f.Settings()
			if err != nil {
				clientErr = err
				return
			}
			client, clientErr = docker.NewClient(ctx, s.ClientConfig(f.Version))
		})
		return client, clientErr
	}
	f.CloseClient = func() {
		if client != nil {
			client.Close()
		}
	}

	// Process-environment overrides are read once, here.
	var (
		overridesOnce sync.Once
		overrides     fixture.Overrides
	)
	f.Overrides = func() fixture.Overrides {
		overridesOnce.Do(func() {
			overrides = config.LoadOverrides(os.LookupEnv, logger.Global())
		})
		return overrides
	}

	return f
}
