package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/ctfdocker/internal/docker"
)

func TestLoaderConfigPath(t *testing.T) {
	loader := NewLoader("/test/path")
	assert.Equal(t, "/test/path/ctfdocker.yaml", loader.ConfigPath())

	loader.WithConfigFile("/etc/ctf.yaml")
	assert.Equal(t, "/etc/ctf.yaml", loader.ConfigPath())
}

func TestLoaderExists(t *testing.T) {
	tmpDir := t.TempDir()
	loader := NewLoader(tmpDir)
	assert.False(t, loader.Exists())

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("output_dir: out\n"), 0o644))
	assert.True(t, loader.Exists())
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	want := DefaultSettings()
	assert.Equal(t, want.OutputDir, cfg.OutputDir)
	assert.True(t, cfg.SaveOutput)
	assert.False(t, cfg.RemoveImage)
	assert.Equal(t, docker.DefaultLabelPrefix, cfg.Docker.LabelPrefix)
	assert.Equal(t, 15, cfg.Exec.PollAttempts)
	assert.Equal(t, time.Second, cfg.Exec.PollInterval)
	assert.Equal(t, 4, cfg.Remove.Attempts)
	assert.Equal(t, 20*time.Second, cfg.Remove.RetryDelay)
	require.NotNil(t, cfg.Logging.FileEnabled)
	assert.True(t, *cfg.Logging.FileEnabled)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := NewLoader(t.TempDir()).WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
	assert.True(t, IsConfigNotFound(err))
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
output_dir: results
save_output: false
remove_image: true
volumes:
  - /srv/data:/data:z
env:
  MixedCase: Value
docker:
  label_prefix: org.example
exec:
  poll_attempts: 3
  poll_interval: 250ms
remove:
  attempts: 2
  retry_delay: 5s
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0o644))

	cfg, err := NewLoader(tmpDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "results", cfg.OutputDir)
	assert.False(t, cfg.SaveOutput)
	assert.True(t, cfg.RemoveImage)
	assert.Equal(t, []string{"/srv/data:/data:z"}, cfg.Volumes)
	assert.Equal(t, map[string]string{"MixedCase": "Value"}, cfg.Env)
	assert.Equal(t, "org.example", cfg.Docker.LabelPrefix)
	assert.Equal(t, 3, cfg.Exec.PollAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Exec.PollInterval)
	assert.Equal(t, 2, cfg.Remove.Attempts)
	assert.Equal(t, 5*time.Second, cfg.Remove.RetryDelay)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("output_dir: results\n"), 0o644))

	t.Setenv("CTF_OUTPUT_DIR", "from-env")
	t.Setenv("CTF_SAVE_OUTPUT", "false")
	t.Setenv("CTF_EXEC_POLL_INTERVAL", "2s")
	t.Setenv("CTF_VOLUMES", "/a:/b,/c:/d:ro")

	cfg, err := NewLoader(tmpDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.False(t, cfg.SaveOutput)
	assert.Equal(t, 2*time.Second, cfg.Exec.PollInterval)
	assert.Equal(t, []string{"/a:/b", "/c:/d:ro"}, cfg.Volumes)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("output_dir: [unterminated\n"), 0o644))

	_, err := NewLoader(tmpDir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestMarshal_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	s := DefaultSettings()
	s.OutputDir = "dumped"
	s.Env = map[string]string{"KEY": "v"}

	out, err := Marshal(&s)
	require.NoError(t, err)
	assert.Contains(t, string(out), "output_dir: dumped")

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), out, 0o644))
	cfg, err := NewLoader(tmpDir).Load()
	require.NoError(t, err)
	assert.Equal(t, "dumped", cfg.OutputDir)
	assert.Equal(t, map[string]string{"KEY": "v"}, cfg.Env)
	assert.Equal(t, s.Exec.PollInterval, cfg.Exec.PollInterval)
}
