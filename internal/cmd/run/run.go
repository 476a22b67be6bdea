// Package run implements the "run" command: a single fixture lifecycle from
// the command line.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/config"
	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/internal/iostreams"
	"github.com/schmitthub/ctfdocker/internal/logger"
	"github.com/schmitthub/ctfdocker/pkg/fixture"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	IOStreams *iostreams.IOStreams
	Client    func(context.Context) (*docker.Client, error)
	Settings  func() (*config.Settings, error)
	Overrides func() fixture.Overrides

	Image        string
	Name         string
	Execs        []string
	DetachExecs  []string
	Copies       []string
	Args         []string
	EnvJSON      string
	TTY          bool
	Volumes      []string
	Env          []string
	OutputDir    string
	NoSaveOutput bool
	RemoveImage  bool
}

// NewCmdRun creates the run command.
func NewCmdRun(f *cmdutil.Factory, runF func(context.Context, *RunOptions) error) *cobra.Command {
	opts := &RunOptions{
		IOStreams: f.IOStreams,
		Client:    f.Client,
		Settings:  f.Settings,
		Overrides: f.Overrides,
	}

	cmd := &cobra.Command{
		Use:   "run [OPTIONS] IMAGE",
		Short: "Start a fixture container, run commands in it and tear it down",
		Long: `Starts a container from IMAGE, copies files into it, runs the given
commands and stops it again. The container output is saved to the output
directory at teardown unless --no-save-output is given.

Commands given with --exec run in order after the --detach commands have been
started. The first command that exits non-zero stops the run, and ctfdocker
exits with that command's exit code.`,
		Example: `  # Run a command and print its output
  ctfdocker run --exec "cat /etc/os-release" alpine:3

  # Start a service in the background, then probe it
  ctfdocker run --detach "nc -lk -p 8080" --exec "nc -z localhost 8080" busybox

  # Copy a payload in and run it with a memory limit
  ctfdocker run --copy ./exploit.py:/tmp --arg mem_limit=256m --exec "python3 /tmp/exploit.py" chal:latest`,
		Args: cmdutil.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Image = args[0]
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return runRun(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Name, "name", "", "Fixture name, used in the container name and log file name")
	flags.StringArrayVar(&opts.Execs, "exec", nil, "Command to run and wait for (repeatable)")
	flags.StringArrayVarP(&opts.DetachExecs, "detach", "d", nil, "Command to start in the background (repeatable)")
	flags.StringArrayVar(&opts.Copies, "copy", nil, "Copy a host file into a container directory (SRC:DEST_DIR)")
	flags.StringArrayVarP(&opts.Args, "arg", "a", nil, "Start argument as key=value, e.g. mem_limit=256m (repeatable)")
	flags.StringVar(&opts.EnvJSON, "env-json", "", "JSON object of environment variables with the highest precedence")
	flags.BoolVarP(&opts.TTY, "tty", "t", false, "Allocate a TTY and keep stdin open")
	flags.StringArrayVarP(&opts.Volumes, "volume", "v", nil, "Bind mount a volume (HOST:CONTAINER[:MODE])")
	flags.StringArrayVarP(&opts.Env, "env", "e", nil, "Set an environment variable (KEY=VALUE)")
	flags.StringVar(&opts.OutputDir, "output-dir", "", "Directory to save container output in")
	flags.BoolVar(&opts.NoSaveOutput, "no-save-output", false, "Do not save container output at teardown")
	flags.BoolVar(&opts.RemoveImage, "remove-image", false, "Remove the image after the container is removed")

	return cmd
}

func runRun(ctx context.Context, opts *RunOptions) error {
	ios := opts.IOStreams

	startOpts, err := startOptions(opts)
	if err != nil {
		return err
	}
	environ, err := parseEnvFlags(opts.Env)
	if err != nil {
		return err
	}

	settings, err := opts.Settings()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := opts.Client(ctx)
	if err != nil {
		return fmt.Errorf("connecting to Docker: %w", err)
	}

	var overrides fixture.Overrides
	if opts.Overrides != nil {
		overrides = opts.Overrides()
	}

	fopts := settings.FixtureOptions(opts.Name, overrides, logger.Global())
	fopts.Start = startOpts
	fopts.Labels = client.Labels().Container(opts.Image, opts.Name)
	fopts.Volumes = append(fopts.Volumes, opts.Volumes...)
	if fopts.Environ == nil {
		fopts.Environ = map[string]string{}
	}
	for k, v := range environ {
		fopts.Environ[k] = v
	}
	if opts.OutputDir != "" {
		fopts.OutputDir = opts.OutputDir
	}
	if opts.NoSaveOutput {
		fopts.SaveOutput = false
	}
	if opts.RemoveImage {
		fopts.RemoveImage = true
	}

	logger.SetContext(opts.Image, opts.Name)
	defer logger.ClearContext()

	h := fixture.New(client, opts.Image, fopts)
	err = h.Use(ctx, func(ctx context.Context, h *fixture.Handle) error {
		if ip := h.IPAddress(); ip != "" {
			ios.PrintInfo("Started %s (%s)", shortID(h.ID()), ip)
		} else {
			ios.PrintInfo("Started %s", shortID(h.ID()))
		}
		return runSteps(ctx, ios, h, opts)
	})
	if err != nil {
		return reportErr(ios, err)
	}
	return nil
}

// runSteps copies files in, starts detached commands, then runs the
// foreground commands in order.
func runSteps(ctx context.Context, ios *iostreams.IOStreams, h *fixture.Handle, opts *RunOptions) error {
	for _, c := range opts.Copies {
		src, dest, ok := strings.Cut(c, ":")
		if !ok || src == "" || dest == "" {
			return cmdutil.FlagErrorf("invalid --copy %q: expected SRC:DEST_DIR", c)
		}
		if err := h.CopyFileToContainer(ctx, src, dest); err != nil {
			return err
		}
	}

	for _, command := range opts.DetachExecs {
		if _, err := h.ExecuteString(ctx, command, true); err != nil {
			return err
		}
		ios.PrintInfo("Started %q in the background", command)
	}

	for _, command := range opts.Execs {
		out, err := h.ExecuteString(ctx, command, false)
		if len(out) > 0 {
			ios.Out.Write(out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// reportErr prints exec failures and maps them to an exit status.
func reportErr(ios *iostreams.IOStreams, err error) error {
	var execErr *fixture.ExecError
	if !errors.As(err, &execErr) {
		return err
	}
	ios.PrintFailure("%s", execErr.Error())
	if execErr.TimedOut {
		return cmdutil.SilentError
	}
	return &cmdutil.ExitError{Code: execErr.ExitCode}
}

// startOptions builds fixture start options from --arg and --env-json.
func startOptions(opts *RunOptions) (fixture.StartOptions, error) {
	raw := make(map[string]string, len(opts.Args))
	for _, a := range opts.Args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return fixture.StartOptions{}, cmdutil.FlagErrorf("invalid --arg %q: expected key=value", a)
		}
		raw[k] = v
	}
	if opts.EnvJSON != "" {
		raw[fixture.ArgEnvJSON] = opts.EnvJSON
	}
	startOpts, err := fixture.ParseArgs(raw)
	if err != nil {
		return fixture.StartOptions{}, cmdutil.FlagErrorWrap(err)
	}
	if opts.TTY {
		startOpts.Container.Tty = true
		startOpts.Container.StdinOpen = true
	}
	return startOpts, nil
}

func parseEnvFlags(entries []string) (map[string]string, error) {
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, cmdutil.FlagErrorf("invalid --env %q: expected KEY=VALUE", e)
		}
		env[k] = v
	}
	return env, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
