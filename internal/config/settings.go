package config

import (
	"maps"
	"time"

	"github.com/schmitthub/ctfdocker/internal/docker"
	"github.com/schmitthub/ctfdocker/internal/logger"
	"github.com/schmitthub/ctfdocker/pkg/fixture"
)

// Settings is the tool-level configuration loaded from ctfdocker.yaml and
// CTF_* environment variables.
type Settings struct {
	// OutputDir is where container logs are persisted at teardown (default: "output").
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// SaveOutput enables log persistence at teardown (default: true).
	SaveOutput bool `yaml:"save_output" mapstructure:"save_output"`
	// RemoveImage removes the backing image after scoped use.
	RemoveImage bool `yaml:"remove_image" mapstructure:"remove_image"`
	// Volumes are bind specs applied to every fixture container.
	Volumes []string `yaml:"volumes,omitempty" mapstructure:"volumes"`
	// Env is applied to every fixture container.
	Env map[string]string `yaml:"env,omitempty" mapstructure:"env"`

	Docker  DockerSettings  `yaml:"docker" mapstructure:"docker"`
	Exec    ExecSettings    `yaml:"exec" mapstructure:"exec"`
	Remove  RemoveSettings  `yaml:"remove" mapstructure:"remove"`
	Logging LoggingSettings `yaml:"logging" mapstructure:"logging"`
}

// DockerSettings configures the daemon connection and resource labeling.
type DockerSettings struct {
	// Host overrides DOCKER_HOST when non-empty.
	Host string `yaml:"host,omitempty" mapstructure:"host"`
	// LabelPrefix namespaces the labels put on fixture containers.
	LabelPrefix string `yaml:"label_prefix" mapstructure:"label_prefix"`
}

// ExecSettings configures exit code polling for non-detached commands.
type ExecSettings struct {
	PollAttempts int           `yaml:"poll_attempts" mapstructure:"poll_attempts"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// RemoveSettings configures container removal retries at teardown.
type RemoveSettings struct {
	Attempts   int           `yaml:"attempts" mapstructure:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// LoggingSettings configures file-based logging.
// File logging is ENABLED by default.
type LoggingSettings struct {
	// FileEnabled enables logging to file (default: true)
	FileEnabled *bool `yaml:"file_enabled,omitempty" mapstructure:"file_enabled"`
	// Dir overrides the logs directory (default: ~/.ctfdocker/logs)
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
	// MaxSizeMB is the max size in MB before rotation (default: 50)
	MaxSizeMB int `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	// MaxAgeDays is max days to retain old logs (default: 7)
	MaxAgeDays int `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	// MaxBackups is max number of old log files to keep (default: 3)
	MaxBackups int `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

// LoggerConfig converts to the logger package's configuration.
func (c LoggingSettings) LoggerConfig() *logger.LoggingConfig {
	return &logger.LoggingConfig{
		FileEnabled: c.FileEnabled,
		MaxSizeMB:   c.MaxSizeMB,
		MaxAgeDays:  c.MaxAgeDays,
		MaxBackups:  c.MaxBackups,
	}
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	opts := fixture.DefaultOptions()
	return Settings{
		OutputDir:  opts.OutputDir,
		SaveOutput: opts.SaveOutput,
		Docker: DockerSettings{
			LabelPrefix: docker.DefaultLabelPrefix,
		},
		Exec: ExecSettings{
			PollAttempts: opts.ExecPollAttempts,
			PollInterval: opts.ExecPollInterval,
		},
		Remove: RemoveSettings{
			Attempts:   opts.RemoveAttempts,
			RetryDelay: opts.RemoveRetryDelay,
		},
	}
}

// FixtureOptions builds handle options from the settings. overrides carries
// the CTF_DOCKER_* values read by LoadOverrides.
func (s *Settings) FixtureOptions(name string, overrides fixture.Overrides, log fixture.Logger) fixture.Options {
	return fixture.Options{
		Name:             name,
		OutputDir:        s.OutputDir,
		SaveOutput:       s.SaveOutput,
		RemoveImage:      s.RemoveImage,
		Volumes:          append([]string(nil), s.Volumes...),
		Environ:          maps.Clone(s.Env),
		Overrides:        overrides,
		Logger:           log,
		ExecPollAttempts: s.Exec.PollAttempts,
		ExecPollInterval: s.Exec.PollInterval,
		RemoveAttempts:   s.Remove.Attempts,
		RemoveRetryDelay: s.Remove.RetryDelay,
	}
}

// ClientConfig returns the daemon connection settings.
func (s *Settings) ClientConfig(version string) docker.ClientConfig {
	return docker.ClientConfig{
		Host:        s.Docker.Host,
		LabelPrefix: s.Docker.LabelPrefix,
		Version:     version,
	}
}
