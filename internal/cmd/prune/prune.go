package prune

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/internal/iostreams"
)

// PruneOptions holds options for the prune command.
type PruneOptions struct {
	IOStreams *iostreams.IOStreams
	Client    func(context.Context) (*docker.Client, error)

	Image  string
	DryRun bool
}

// NewCmdPrune creates the prune command.
func NewCmdPrune(f *cmdutil.Factory, runF func(context.Context, *PruneOptions) error) *cobra.Command {
	opts := &PruneOptions{
		IOStreams: f.IOStreams,
		Client:    f.Client,
	}

	cmd := &cobra.Command{
		Use:   "prune [IMAGE]",
		Short: "Remove leftover fixture containers",
		Long: `Force-removes every container ctfdocker created, running or not. Containers
are left behind when a run is interrupted or their removal failed at teardown.

With IMAGE, only containers created from that image are removed.`,
		Example: `  # Remove all fixture containers
  ctfdocker prune

  # Remove the fixture containers of one image
  ctfdocker prune chal:latest

  # List what would be removed
  ctfdocker prune --dry-run`,
		Args: cmdutil.RequiresMaxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Image = args[0]
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return pruneRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "List the containers without removing them")

	return cmd
}

func pruneRun(ctx context.Context, opts *PruneOptions) error {
	ios := opts.IOStreams

	client, err := opts.Client(ctx)
	if err != nil {
		return fmt.Errorf("connecting to Docker: %w", err)
	}

	if opts.DryRun {
		containers, err := client.ListFixtures(ctx, opts.Image, true)
		if err != nil {
			return err
		}
		if len(containers) == 0 {
			return ios.PrintEmpty("fixture containers")
		}
		for _, c := range containers {
			name := c.ID
			if len(c.Names) > 0 {
				name = strings.TrimPrefix(c.Names[0], "/")
			}
			fmt.Fprintf(ios.Out, "%s\t%s\t%s\n", name, c.Image, c.State)
		}
		return nil
	}

	removed, err := client.PruneFixtures(ctx, opts.Image)
	for _, id := range removed {
		fmt.Fprintln(ios.Out, id)
	}
	if err != nil {
		ios.PrintFailure("%v", err)
		return cmdutil.SilentError
	}
	if len(removed) == 0 {
		return ios.PrintEmpty("fixture containers")
	}
	return ios.PrintSuccess("Removed %d fixture %s", len(removed), pluralContainer(len(removed)))
}

func pluralContainer(n int) string {
	if n == 1 {
		return "container"
	}
	return "containers"
}
