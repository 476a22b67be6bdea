package config

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/config"
	"github.com/schmitthub/ctfdocker/internal/iostreams"
)

// ConfigOptions holds options for the config command.
type ConfigOptions struct {
	IOStreams *iostreams.IOStreams
	Settings  func() (*config.Settings, error)
}

// NewCmdConfig creates the config command.
func NewCmdConfig(f *cmdutil.Factory, runF func(context.Context, *ConfigOptions) error) *cobra.Command {
	opts := &ConfigOptions{
		IOStreams: f.IOStreams,
		Settings:  f.Settings,
	}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Prints the configuration ctfdocker runs with, after ctfdocker.yaml,
CTF_* environment variables and defaults have been applied.`,
		Example: `  # Show the configuration
  ctfdocker config

  # Show the configuration of another file
  ctfdocker --config ./ci.yaml config`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return configRun(opts)
		},
	}

	return cmd
}

func configRun(opts *ConfigOptions) error {
	settings, err := opts.Settings()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	out, err := config.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = opts.IOStreams.Out.Write(out)
	return err
}
