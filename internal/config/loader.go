package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = "ctfdocker.yaml"
	// EnvPrefix prefixes every settings environment variable (CTF_OUTPUT_DIR, ...)
	EnvPrefix = "CTF"
)

// Loader handles loading and parsing of ctfdocker configuration
type Loader struct {
	workDir    string
	configFile string
	viper      *viper.Viper
}

// NewLoader creates a new configuration loader for the given working directory
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
}

// WithConfigFile makes the loader read path instead of ctfdocker.yaml in the
// working directory. An explicit file must exist.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	if l.configFile != "" {
		return l.configFile
	}
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// Load reads ctfdocker.yaml when present, applies CTF_* environment
// variables and fills the rest from DefaultSettings.
func (l *Loader) Load() (*Settings, error) {
	configPath := l.ConfigPath()

	exists := l.Exists()
	if !exists && l.configFile != "" {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetEnvPrefix(EnvPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.viper.AutomaticEnv()
	setDefaults(l.viper)

	if exists {
		l.viper.SetConfigFile(configPath)
		l.viper.SetConfigType("yaml")
		if err := l.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Settings
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if exists {
		// Viper lowercases map keys; environment variable names are case-sensitive.
		if err := fixEnvKeyCase(&cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultSettings()
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("save_output", defaults.SaveOutput)
	v.SetDefault("remove_image", defaults.RemoveImage)
	v.SetDefault("volumes", []string{})
	v.SetDefault("docker.host", "")
	v.SetDefault("docker.label_prefix", defaults.Docker.LabelPrefix)
	v.SetDefault("exec.poll_attempts", defaults.Exec.PollAttempts)
	v.SetDefault("exec.poll_interval", defaults.Exec.PollInterval)
	v.SetDefault("remove.attempts", defaults.Remove.Attempts)
	v.SetDefault("remove.retry_delay", defaults.Remove.RetryDelay)
	v.SetDefault("logging.file_enabled", true)
	v.SetDefault("logging.dir", "")
	v.SetDefault("logging.max_size_mb", 0)
	v.SetDefault("logging.max_age_days", 0)
	v.SetDefault("logging.max_backups", 0)
}

// fixEnvKeyCase re-reads the YAML to preserve original case for env keys.
func fixEnvKeyCase(cfg *Settings, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var raw struct {
		Env map[string]string `yaml:"env"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw.Env) > 0 {
		cfg.Env = raw.Env
	}
	return nil
}

// ConfigNotFoundError is returned when an explicitly requested config file doesn't exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	var target *ConfigNotFoundError
	return errors.As(err, &target)
}

// Marshal renders settings as YAML, the format Load reads.
func Marshal(s *Settings) ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return out, nil
}
