package prune

import (
	"bytes"
	"context"
	"errors"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/google/shlex"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/ctfdocker/internal/cmdutil"
	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/internal/docker/dockertest"
	"github.com/schmitthub/ctfdocker/internal/iostreams/iostreamstest"
)

func TestNewCmdPrune(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		args       []string
		output     PruneOptions
		wantErr    bool
		wantErrMsg string
	}{
		{
			name:   "all fixtures",
			output: PruneOptions{},
		},
		{
			name:   "one image",
			args:   []string{"chal:latest"},
			output: PruneOptions{Image: "chal:latest"},
		},
		{
			name:   "dry run",
			input:  "--dry-run",
			output: PruneOptions{DryRun: true},
		},
		{
			name:   "dry run shorthand",
			input:  "-n",
			args:   []string{"alpine:3"},
			output: PruneOptions{DryRun: true, Image: "alpine:3"},
		},
		{
			name:       "too many images",
			args:       []string{"a", "b"},
			wantErr:    true,
			wantErrMsg: "'prune' requires at most 1 argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &cmdutil.Factory{}

			var gotOpts *PruneOptions
			cmd := NewCmdPrune(f, func(_ context.Context, opts *PruneOptions) error {
				gotOpts = opts
				return nil
			})

			cmd.Flags().BoolP("help", "x", false, "")

			argv := tt.args
			if tt.input != "" {
				parsed, err := shlex.Split(tt.input)
				require.NoError(t, err)
				argv = append(parsed, tt.args...)
			}

			cmd.SetArgs(argv)
			cmd.SetIn(&bytes.Buffer{})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			_, err := cmd.ExecuteC()
			if tt.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, gotOpts)
			require.Equal(t, tt.output.Image, gotOpts.Image)
			require.Equal(t, tt.output.DryRun, gotOpts.DryRun)
		})
	}
}

// --- Tier 2: Cobra+Factory integration tests ---

func testFactory(fake *dockertest.FakeClient) (*cmdutil.Factory, *iostreamstest.TestIOStreams) {
	tio := iostreamstest.New()
	return &cmdutil.Factory{
		IOStreams: tio.IOStreams,
		Client: func(context.Context) (*docker.Client, error) {
			return fake.Client, nil
		},
	}, tio
}

func execute(f *cmdutil.Factory, tio *iostreamstest.TestIOStreams, argv ...string) error {
	cmd := NewCmdPrune(f, nil)
	cmd.SetArgs(argv)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetOut(tio.OutBuf)
	cmd.SetErr(tio.ErrBuf)
	return cmd.Execute()
}

func TestPruneRun_RemovesAll(t *testing.T) {
	fake := dockertest.NewFakeClient()
	web := dockertest.RunningContainerFixture("alpine:3", "web")
	db := dockertest.ContainerFixture("postgres:16", "db")
	fake.SetupContainerList(web, db)
	fake.SetupContainerRemove()
	f, tio := testFactory(fake)

	require.NoError(t, execute(f, tio))

	fake.AssertCalledN(t, "ContainerRemove", 2)
	require.Equal(t, web.ID+"\n"+db.ID+"\n", tio.OutBuf.String())
	require.Contains(t, tio.ErrBuf.String(), "Removed 2 fixture containers")
}

func TestPruneRun_Empty(t *testing.T) {
	fake := dockertest.NewFakeClient()
	fake.SetupContainerList()
	f, tio := testFactory(fake)

	require.NoError(t, execute(f, tio))

	fake.AssertNotCalled(t, "ContainerRemove")
	require.Contains(t, tio.ErrBuf.String(), "No fixture containers found.")
}

func TestPruneRun_PartialFailure(t *testing.T) {
	fake := dockertest.NewFakeClient()
	ok := dockertest.ContainerFixture("alpine:3", "ok")
	stuck := dockertest.ContainerFixture("alpine:3", "stuck")
	fake.SetupContainerList(ok, stuck)
	fake.SetupContainerRemoveError(errors.New("device or resource busy"), stuck.ID)
	f, tio := testFactory(fake)

	err := execute(f, tio)
	require.ErrorIs(t, err, cmdutil.SilentError)

	require.Equal(t, ok.ID+"\n", tio.OutBuf.String())
	require.Contains(t, tio.ErrBuf.String(), "device or resource busy")
}

func TestPruneRun_AlreadyGoneIsNotAFailure(t *testing.T) {
	fake := dockertest.NewFakeClient()
	gone := dockertest.ContainerFixture("alpine:3", "gone")
	fake.SetupContainerList(gone)
	fake.SetupContainerRemoveError(cerrdefs.ErrNotFound, gone.ID)
	f, tio := testFactory(fake)

	require.NoError(t, execute(f, tio))
	require.Contains(t, tio.ErrBuf.String(), "No fixture containers found.")
}

func TestPruneRun_DryRun(t *testing.T) {
	fake := dockertest.NewFakeClient()
	web := dockertest.RunningContainerFixture("alpine:3", "web")
	fake.SetupContainerList(web)
	f, tio := testFactory(fake)

	require.NoError(t, execute(f, tio, "--dry-run"))

	fake.AssertNotCalled(t, "ContainerRemove")
	require.Contains(t, tio.OutBuf.String(), "alpine:3\trunning")
	require.Contains(t, tio.OutBuf.String(), "ctfdocker-web-")
}

func TestPruneRun_ListError(t *testing.T) {
	fake := dockertest.NewFakeClient()
	fake.SetupContainerListError(errors.New("daemon unavailable"))
	f, tio := testFactory(fake)

	err := execute(f, tio)
	require.Error(t, err)
	require.Contains(t, err.Error(), "daemon unavailable")
}
