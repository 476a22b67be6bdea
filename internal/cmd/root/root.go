package root

import (
	"github.com/spf13/cobra"

	configcmd "github.com/schmitthub/ctfdocker/internal/cmd/config"
	"github.com/schmitthub/ctfdocker/internal/cmd/prune"
	"github.com/schmitthub/ctfdocker/internal/cmd/run"
	versioncmd "github.com/schmitthub/ctfdocker/internal/cmd/version"
	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/logger"
)

// NewCmdRoot creates the root command for the ctfdocker CLI.
func NewCmdRoot(f *cmdutil.Factory, version, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctfdocker",
		Short: "Run challenge images as disposable Docker fixtures",
		Long: `ctfdocker starts a container from an image, runs commands inside it and
tears it down again, saving the container's output for later inspection.

Quick start:
  ctfdocker run --exec "id" alpine:3     # Start, exec, save logs, remove
  ctfdocker prune                       # Remove leftover fixture containers
  ctfdocker config                      # Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(version, buildDate),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initializeLogger(f)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Str("workdir", f.WorkDir).
				Msg("ctfdocker starting")

			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&f.WorkDir, "workdir", "w", f.WorkDir, "Directory to look for ctfdocker.yaml in")
	cmd.PersistentFlags().StringVarP(&f.ConfigFile, "config", "c", "", "Path to a configuration file")

	cmd.SetVersionTemplate(versioncmd.Format(version, buildDate))

	cmd.AddCommand(run.NewCmdRun(f, nil))
	cmd.AddCommand(prune.NewCmdPrune(f, nil))
	cmd.AddCommand(configcmd.NewCmdConfig(f, nil))
	cmd.AddCommand(versioncmd.NewCmdVersion(f))

	return cmd
}

// initializeLogger sets up the logger with file logging if possible.
// Falls back to console-only logging on any errors.
func initializeLogger(f *cmdutil.Factory) {
	if f.Settings == nil {
		logger.Init(f.Debug)
		return
	}

	settings, err := f.Settings()
	if err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to load settings")
		return
	}

	logsDir, err := settings.LogsDir()
	if err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to get logs directory")
		return
	}

	if err := logger.InitWithFile(f.Debug, logsDir, settings.Logging.LoggerConfig()); err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
