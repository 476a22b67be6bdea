package ctfdocker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmitthub/ctfdocker/internal/cmd/factory"
	"github.com/schmitthub/ctfdocker/internal/cmd/root"
	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/logger"
	"github.com/schmitthub/ctfdocker/internal/signals"
)

// Build-time variables injected via ldflags
var (
	Version   = "dev"
	BuildDate = ""
)

const (
	exitOK     = 0
	exitError  = 1
	exitCancel = 130
)

// Main is the entry point for the ctfdocker CLI.
// It initializes the Factory, creates the root command, and executes it.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := factory.New(Version)
	defer f.CloseClient()

	ctx, cancel := signals.SetupSignalContext(context.Background(), func(sig os.Signal) {
		f.IOStreams.PrintWarning("Received %s, tearing down", sig)
	})
	defer cancel()

	rootCmd := root.NewCmdRoot(f, Version, BuildDate)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	return exitCode(f.IOStreams.ErrOut, cmd, err)
}

// exitCode prints err the way the command layer expects and maps it to a
// process exit status.
func exitCode(stderr io.Writer, cmd *cobra.Command, err error) int {
	if err == nil {
		return exitOK
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, cmdutil.SilentError) {
		return exitError
	}
	if errors.Is(err, context.Canceled) {
		return exitCancel
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintln(stderr, err)
		if cmd != nil {
			fmt.Fprintln(stderr, cmd.UsageString())
		}
		return exitError
	}

	fmt.Fprintf(stderr, "Error: %s\n", err)
	if cmd != nil {
		fmt.Fprintf(stderr, "Run '%s --help' for more information\n", cmd.CommandPath())
	}
	return exitError
}
