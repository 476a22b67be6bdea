package config

import (
	"os"
	"path/filepath"
)

const (
	// HomeEnv is the environment variable for the ctfdocker home directory
	HomeEnv = "CTFDOCKER_HOME"
	// DefaultHomeDir is the default directory name under user home
	DefaultHomeDir = ".ctfdocker"
	// LogsSubdir is the subdirectory for the tool's own rotating log
	LogsSubdir = "logs"
)

// Home returns the ctfdocker home directory.
// It checks CTFDOCKER_HOME first, then defaults to ~/.ctfdocker
func Home() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultHomeDir), nil
}

// LogsDir returns the directory for the tool's log file. LoggingSettings.Dir
// wins when set.
func (s *Settings) LogsDir() (string, error) {
	if s.Logging.Dir != "" {
		return s.Logging.Dir, nil
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LogsSubdir), nil
}
