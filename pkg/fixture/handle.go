package fixture

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	digest "github.com/opencontainers/go-digest"

	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/pkg/whail"
)

// Handle represents one fixture container and mediates its lifecycle.
type Handle struct {
	engine  Engine
	imageID string
	log     Logger

	name          string
	containerName string
	labels        map[string]string
	outputDir     string
	saveOutput    bool
	removeImage   bool
	entrypoint    []string
	volumes       []string
	environ       map[string]string
	start         StartOptions

	execPollAttempts int
	execPollInterval time.Duration
	removeAttempts   int
	removeRetryDelay time.Duration

	containerID string
	tty         bool
	running     bool
	started     bool
	saved       bool
	ipAddress   string
}

// New returns a Handle for imageID. No engine call is made until Start.
// Overrides are merged here: volumes are appended to Options.Volumes and the
// override environment is laid over Options.Environ.
func New(engine Engine, imageID string, opts Options) *Handle {
	defaults := DefaultOptions()
	if opts.OutputDir == "" {
		opts.OutputDir = defaults.OutputDir
	}
	if opts.ExecPollAttempts <= 0 {
		opts.ExecPollAttempts = defaults.ExecPollAttempts
	}
	if opts.ExecPollInterval <= 0 {
		opts.ExecPollInterval = defaults.ExecPollInterval
	}
	if opts.RemoveAttempts <= 0 {
		opts.RemoveAttempts = defaults.RemoveAttempts
	}
	if opts.RemoveRetryDelay <= 0 {
		opts.RemoveRetryDelay = defaults.RemoveRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}

	volumes := make([]string, 0, len(opts.Volumes)+len(opts.Overrides.Volumes))
	volumes = append(volumes, opts.Volumes...)
	volumes = append(volumes, opts.Overrides.Volumes...)

	environ := make(map[string]string, len(opts.Environ)+len(opts.Overrides.Env))
	maps.Copy(environ, opts.Environ)
	maps.Copy(environ, opts.Overrides.Env)

	return &Handle{
		engine:           engine,
		imageID:          imageID,
		log:              opts.Logger,
		name:             opts.Name,
		containerName:    opts.ContainerName,
		labels:           maps.Clone(opts.Labels),
		outputDir:        opts.OutputDir,
		saveOutput:       opts.SaveOutput,
		removeImage:      opts.RemoveImage,
		entrypoint:       opts.Entrypoint,
		volumes:          volumes,
		environ:          environ,
		start:            opts.Start,
		execPollAttempts: opts.ExecPollAttempts,
		execPollInterval: opts.ExecPollInterval,
		removeAttempts:   opts.RemoveAttempts,
		removeRetryDelay: opts.RemoveRetryDelay,
	}
}

// ID returns the engine container ID, or "" before creation.
func (h *Handle) ID() string { return h.containerID }

// Running reports whether the handle started a container that has not been stopped.
func (h *Handle) Running() bool { return h.running }

// IPAddress returns the container address read back after start.
func (h *Handle) IPAddress() string { return h.ipAddress }

// ImageID returns the image the handle instantiates.
func (h *Handle) ImageID() string { return h.imageID }

// Volumes returns the merged bind specs.
func (h *Handle) Volumes() []string { return append([]string(nil), h.volumes...) }

// Environ returns the merged instance environment.
func (h *Handle) Environ() map[string]string { return maps.Clone(h.environ) }

// Start creates and starts a detached container. It is a no-op while the
// handle is running. A container left behind by a failed start is removed
// before a new one is created.
func (h *Handle) Start(ctx context.Context, opts StartOptions) error {
	return h.startContainer(ctx, opts, false)
}

// StartWithCommand is Start with a pseudo-TTY and open stdin allocated, for
// images whose primary process must stay attached to a terminal.
func (h *Handle) StartWithCommand(ctx context.Context, opts StartOptions) error {
	return h.startContainer(ctx, opts, true)
}

func (h *Handle) startContainer(ctx context.Context, opts StartOptions, tty bool) error {
	if h.running {
		h.log.Debug().Str("container", h.containerID).Msg("container is running")
		return nil
	}

	create, err := h.createOptions(opts, tty)
	if err != nil {
		return err
	}

	if h.containerID != "" {
		h.log.Debug().Str("container", h.containerID).Msg("removing container from failed start")
		if err := h.removeContainer(ctx); err != nil {
			return err
		}
		h.clear()
	}

	h.log.Debug().
		Str("image", h.imageID).
		Strs("env", create.Config.Env).
		Strs("binds", create.HostConfig.Binds).
		Msg("creating container")

	resp, err := h.engine.ContainerCreate(ctx, create, h.labels)
	if err != nil {
		return fmt.Errorf("creating container from %s: %w", h.imageID, err)
	}
	for _, w := range resp.Warnings {
		h.log.Warn().Str("container", resp.ID).Msg(w)
	}
	h.containerID = resp.ID
	h.tty = create.Config.Tty

	h.log.Debug().Str("container", h.containerID).Msg("starting container")
	if err := h.engine.ContainerStart(ctx, h.containerID); err != nil {
		return fmt.Errorf("starting container %s: %w", h.containerID, err)
	}
	h.running = true
	h.started = true

	info, err := h.engine.ContainerInspect(ctx, h.containerID)
	if err != nil {
		return fmt.Errorf("reading network settings of %s: %w", h.containerID, err)
	}
	h.ipAddress = containerIP(info.Container)
	return nil
}

// createOptions builds the create request for the image. Every volume's
// container-side path goes into Config.Volumes; specs with a host side also
// become HostConfig.Binds.
func (h *Handle) createOptions(opts StartOptions, tty bool) (whail.ContainerCreateOptions, error) {
	env, err := mergeEnv(opts, h.environ)
	if err != nil {
		return whail.ContainerCreateOptions{}, err
	}

	cfg := &container.Config{
		Image:     h.imageID,
		Env:       envList(env),
		Tty:       tty,
		OpenStdin: tty,
	}
	if len(h.entrypoint) > 0 {
		cfg.Entrypoint = h.entrypoint
	}
	hostCfg := &container.HostConfig{}

	if len(h.volumes) > 0 {
		cfg.Volumes = make(map[string]struct{}, len(h.volumes))
		for _, v := range h.volumes {
			cfg.Volumes[mountPoint(v)] = struct{}{}
			if strings.Contains(v, ":") {
				hostCfg.Binds = append(hostCfg.Binds, v)
			}
		}
	}

	if err := opts.Container.apply(cfg); err != nil {
		return whail.ContainerCreateOptions{}, fmt.Errorf("container arguments: %w", err)
	}
	if err := opts.Host.apply(cfg, hostCfg); err != nil {
		return whail.ContainerCreateOptions{}, fmt.Errorf("host arguments: %w", err)
	}

	name := h.containerName
	if name == "" {
		name = docker.ContainerName(h.name)
	}
	return whail.ContainerCreateOptions{
		Config:     cfg,
		HostConfig: hostCfg,
		Name:       name,
	}, nil
}

// mountPoint returns the container-side path of a bind spec. A spec without
// a colon is an anonymous volume path.
func mountPoint(spec string) string {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) >= 2 {
		return parts[1]
	}
	return parts[0]
}

func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// containerIP returns the first valid endpoint address, preferring the
// default bridge network and then network names in order.
func containerIP(info whail.InspectResponse) string {
	if info.NetworkSettings == nil {
		return ""
	}
	networks := info.NetworkSettings.Networks
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if names[i] == "bridge" || names[j] == "bridge" {
			return names[i] == "bridge"
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		if ep := networks[name]; ep != nil && ep.IPAddress.IsValid() {
			return ep.IPAddress.String()
		}
	}
	return ""
}

// Execute runs cmd in the container. A detached command is started and nil
// is returned at once. Otherwise the combined stdout and stderr are returned
// once the exit code resolves to zero; a non-zero or unresolved exit code is
// reported as an *ExecError carrying the output.
func (h *Handle) Execute(ctx context.Context, cmd []string, detach bool) ([]byte, error) {
	if h.containerID == "" {
		return nil, ErrNotStarted
	}

	created, err := h.engine.ExecCreate(ctx, h.containerID, whail.ExecCreateOptions{
		AttachStdout: !detach,
		AttachStderr: !detach,
		Cmd:          cmd,
	})
	if err != nil {
		return nil, fmt.Errorf("creating exec in %s: %w", h.containerID, err)
	}

	if detach {
		if err := h.engine.ExecStart(ctx, created.ID, whail.ExecStartOptions{Detach: true}); err != nil {
			return nil, fmt.Errorf("starting detached exec %s: %w", created.ID, err)
		}
		h.log.Debug().Str("exec", created.ID).Strs("cmd", cmd).Msg("started detached command")
		return nil, nil
	}

	hijacked, err := h.engine.ExecAttach(ctx, created.ID, whail.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("attaching to exec %s: %w", created.ID, err)
	}
	var out bytes.Buffer
	_, err = stdcopy.StdCopy(&out, &out, hijacked.Reader)
	hijacked.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return out.Bytes(), fmt.Errorf("reading exec output: %w", err)
	}

	exitCode, resolved, err := h.waitExec(ctx, created.ID)
	if err != nil {
		return out.Bytes(), err
	}
	if !resolved {
		return out.Bytes(), &ExecError{Cmd: cmd, Output: out.Bytes(), TimedOut: true}
	}
	if exitCode != 0 {
		return out.Bytes(), &ExecError{Cmd: cmd, ExitCode: exitCode, Output: out.Bytes()}
	}
	return out.Bytes(), nil
}

// waitExec inspects the exec once, then polls while the engine still reports
// it running.
func (h *Handle) waitExec(ctx context.Context, execID string) (int, bool, error) {
	for attempt := 0; ; attempt++ {
		info, err := h.engine.ExecInspect(ctx, execID)
		if err != nil {
			return 0, false, fmt.Errorf("inspecting exec %s: %w", execID, err)
		}
		if !info.Running {
			return info.ExitCode, true, nil
		}
		if attempt >= h.execPollAttempts {
			return 0, false, nil
		}
		if err := sleepCtx(ctx, h.execPollInterval); err != nil {
			return 0, false, err
		}
	}
}

// ExecuteString splits command with shell quoting rules and runs it.
func (h *Handle) ExecuteString(ctx context.Context, command string, detach bool) ([]byte, error) {
	cmd, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", command, err)
	}
	if len(cmd) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return h.Execute(ctx, cmd, detach)
}

// Stop persists the container logs when configured, kills the container if
// it is still running and removes it with retry. Removal failures after the
// final attempt are returned and the handle keeps the container reference.
func (h *Handle) Stop(ctx context.Context) error {
	var saveErr error
	if h.saveOutput && h.started && !h.saved && h.containerID != "" {
		saveErr = h.saveLogs(ctx)
		if saveErr != nil {
			h.log.Error().Err(saveErr).Str("container", h.containerID).Msg("saving container output failed")
		} else {
			h.saved = true
		}
	}

	if h.containerID == "" {
		return saveErr
	}

	h.log.Debug().Str("container", h.containerID).Msg("removing container")
	info, err := h.engine.ContainerInspect(ctx, h.containerID)
	switch {
	case whail.IsNotFound(err):
		h.log.Debug().Str("container", h.containerID).Msg("container already gone")
		h.clear()
		return saveErr
	case err != nil:
		h.log.Warn().Err(err).Str("container", h.containerID).Msg("inspecting container before removal failed")
	case info.Container.State != nil && info.Container.State.Running:
		if err := h.engine.ContainerKill(ctx, h.containerID, ""); err != nil {
			h.log.Warn().Err(err).Str("container", h.containerID).Msg("killing container failed")
		}
	}
	h.running = false

	if err := h.removeContainer(ctx); err != nil {
		return errors.Join(saveErr, err)
	}
	h.clear()
	return saveErr
}

func (h *Handle) clear() {
	h.containerID = ""
	h.running = false
	h.started = false
	h.saved = false
	h.ipAddress = ""
}

func (h *Handle) removeContainer(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		h.log.Info().Str("container", h.containerID).Int("attempt", attempt).Msg("removing container")
		err := h.engine.ContainerRemove(ctx, h.containerID, false)
		if err == nil || whail.IsNotFound(err) {
			h.log.Info().Str("container", h.containerID).Msg("container removed")
			return nil
		}
		h.log.Warn().Err(err).Str("container", h.containerID).Int("attempt", attempt).Msg("removing container failed")
		if attempt >= h.removeAttempts {
			return fmt.Errorf("removing container %s after %d attempts: %w", h.containerID, attempt, err)
		}
		if err := sleepCtx(ctx, h.removeRetryDelay); err != nil {
			return err
		}
	}
}

func (h *Handle) saveLogs(ctx context.Context) error {
	logs, err := h.Output(ctx, true)
	if err != nil {
		return err
	}
	path, err := writeLogFile(h.outputDir, LogFileName(h.name, h.containerID), logs)
	if err != nil {
		return err
	}
	h.log.Info().
		Str("container", h.containerID).
		Str("path", path).
		Str("digest", digest.FromBytes(logs).String()).
		Msg("saved container output")
	return nil
}

// Inspect returns the engine's descriptor of the container, or nil when no
// container exists.
func (h *Handle) Inspect(ctx context.Context) (*whail.InspectResponse, error) {
	if h.containerID == "" {
		return nil, nil
	}
	info, err := h.engine.ContainerInspect(ctx, h.containerID)
	if err != nil {
		return nil, err
	}
	return &info.Container, nil
}

// Output returns the container logs. When the log endpoint fails it falls back
// to attaching to the container, replaying prior output if history is set.
func (h *Handle) Output(ctx context.Context, history bool) ([]byte, error) {
	if h.containerID == "" {
		return nil, ErrNotStarted
	}
	rc, err := h.engine.ContainerLogs(ctx, h.containerID, whail.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err == nil {
		defer rc.Close()
		return h.readStream(rc)
	}
	h.log.Debug().Err(err).Str("container", h.containerID).Msg("reading logs failed, attaching instead")

	hijacked, attachErr := h.engine.ContainerAttach(ctx, h.containerID, whail.ContainerAttachOptions{
		Stdout: true,
		Stderr: true,
		Logs:   history,
	})
	if attachErr != nil {
		return nil, errors.Join(err, attachErr)
	}
	defer hijacked.Close()
	return h.readStream(hijacked.Reader)
}

func (h *Handle) readStream(r io.Reader) ([]byte, error) {
	if h.tty {
		return io.ReadAll(r)
	}
	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, r); err != nil && !errors.Is(err, io.EOF) {
		return out.Bytes(), fmt.Errorf("reading container output: %w", err)
	}
	return out.Bytes(), nil
}

// RemoveImage deletes the backing image.
func (h *Handle) RemoveImage(ctx context.Context, force bool) error {
	h.log.Info().Str("image", h.imageID).Bool("force", force).Msg("removing image")
	if _, err := h.engine.ImageRemove(ctx, h.imageID, whail.ImageRemoveOptions{Force: force}); err != nil {
		return fmt.Errorf("removing image %s: %w", h.imageID, err)
	}
	return nil
}

// CopyFileToContainer uploads srcFile into destDir inside the container as a
// single tar entry. Relative paths resolve against the working directory and
// directories are copied without their contents.
func (h *Handle) CopyFileToContainer(ctx context.Context, srcFile, destDir string) error {
	if h.containerID == "" {
		return ErrNotStarted
	}
	src, err := filepath.Abs(srcFile)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", srcFile, err)
	}
	archive, err := singleFileTar(src)
	if err != nil {
		return err
	}
	if err := h.engine.CopyToContainer(ctx, h.containerID, whail.CopyToContainerOptions{
		DestinationPath: destDir,
		Content:         archive,
	}); err != nil {
		return fmt.Errorf("copying %s to %s:%s: %w", src, h.containerID, destDir, err)
	}
	return nil
}

func singleFileTar(path string) (*bytes.Buffer, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return nil, fmt.Errorf("reading link %s: %w", path, err)
		}
	}
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return nil, fmt.Errorf("building tar header for %s: %w", path, err)
	}
	hdr.Name = filepath.Base(path)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("writing tar header for %s: %w", path, err)
	}
	if info.Mode().IsRegular() {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		_, err = io.Copy(tw, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("archiving %s: %w", path, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar for %s: %w", path, err)
	}
	return &buf, nil
}

// Use starts the container with Options.Start, runs fn and always stops the
// container afterwards, even when fn panics or ctx is cancelled. When
// Options.RemoveImage is set the image is removed after the stop. Errors from
// each step are joined.
func (h *Handle) Use(ctx context.Context, fn func(context.Context, *Handle) error) (err error) {
	defer func() {
		teardownCtx := context.WithoutCancel(ctx)
		if stopErr := h.Stop(teardownCtx); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
		if h.removeImage {
			if rmErr := h.RemoveImage(teardownCtx, false); rmErr != nil {
				err = errors.Join(err, rmErr)
			}
		}
	}()

	if err := h.Start(ctx, h.start); err != nil {
		return err
	}
	return fn(ctx, h)
}
