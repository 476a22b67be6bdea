package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// resetLoggerState resets all global logger state for test isolation
func resetLoggerState() {
	fileWriter = nil
	logContext = logContextData{}
	Log = zerolog.Nop()
}

func TestDefaultLoggerIsNop(t *testing.T) {
	resetLoggerState()

	if Log.GetLevel() != zerolog.Disabled {
		t.Errorf("default logger should be nop (Disabled level), got %v", Log.GetLevel())
	}
}

func TestInit(t *testing.T) {
	resetLoggerState()

	Init(false)
	if Log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Init(false) level = %v, want info", Log.GetLevel())
	}

	Init(true)
	if Log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Init(true) level = %v, want debug", Log.GetLevel())
	}
}

func TestLogFunctions(t *testing.T) {
	resetLoggerState()
	tmpDir := t.TempDir()
	if err := InitWithFile(true, tmpDir, &LoggingConfig{MaxSizeMB: 1}); err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	t.Cleanup(func() { CloseFileWriter() })

	if Debug() == nil {
		t.Error("Debug() should return non-nil event")
	}
	if Info() == nil {
		t.Error("Info() should return non-nil event")
	}
	if Warn() == nil {
		t.Error("Warn() should return non-nil event")
	}
	if Error() == nil {
		t.Error("Error() should return non-nil event")
	}
}

func TestLoggingConfigDefaults(t *testing.T) {
	cfg := &LoggingConfig{}
	if !cfg.IsFileEnabled() {
		t.Error("IsFileEnabled should default to true when nil")
	}

	falseVal := false
	cfg.FileEnabled = &falseVal
	if cfg.IsFileEnabled() {
		t.Error("IsFileEnabled should return false when explicitly set")
	}

	cfg = &LoggingConfig{}
	if cfg.GetMaxSizeMB() != 50 {
		t.Errorf("GetMaxSizeMB should default to 50, got %d", cfg.GetMaxSizeMB())
	}
	if cfg.GetMaxAgeDays() != 7 {
		t.Errorf("GetMaxAgeDays should default to 7, got %d", cfg.GetMaxAgeDays())
	}
	if cfg.GetMaxBackups() != 3 {
		t.Errorf("GetMaxBackups should default to 3, got %d", cfg.GetMaxBackups())
	}

	cfg = &LoggingConfig{
		MaxSizeMB:  20,
		MaxAgeDays: 14,
		MaxBackups: 5,
	}
	if cfg.GetMaxSizeMB() != 20 {
		t.Errorf("GetMaxSizeMB should return 20, got %d", cfg.GetMaxSizeMB())
	}
	if cfg.GetMaxAgeDays() != 14 {
		t.Errorf("GetMaxAgeDays should return 14, got %d", cfg.GetMaxAgeDays())
	}
	if cfg.GetMaxBackups() != 5 {
		t.Errorf("GetMaxBackups should return 5, got %d", cfg.GetMaxBackups())
	}
}

func TestInitWithFile(t *testing.T) {
	resetLoggerState()
	tmpDir := t.TempDir()

	cfg := &LoggingConfig{
		MaxSizeMB:  1,
		MaxAgeDays: 1,
		MaxBackups: 1,
	}

	if err := InitWithFile(false, tmpDir, cfg); err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, LogFileName)
	if logPath := GetLogFilePath(); logPath != expectedPath {
		t.Errorf("GetLogFilePath = %q, want %q", logPath, expectedPath)
	}

	Info().Msg("test log message")

	if err := CloseFileWriter(); err != nil {
		t.Errorf("CloseFileWriter failed: %v", err)
	}

	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test log message") {
		t.Error("Log file should contain the test message")
	}
}

func TestInitWithFileDisabled(t *testing.T) {
	resetLoggerState()

	falseVal := false
	cfg := &LoggingConfig{FileEnabled: &falseVal}

	if err := InitWithFile(false, "/some/path", cfg); err != nil {
		t.Fatalf("InitWithFile with disabled file logging should not fail: %v", err)
	}
	if GetLogFilePath() != "" {
		t.Error("GetLogFilePath should return empty when file logging is disabled")
	}
	if Log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("console logger level = %v, want info", Log.GetLevel())
	}
}

func TestInitWithFileEmptyDir(t *testing.T) {
	resetLoggerState()

	if err := InitWithFile(false, "", &LoggingConfig{}); err != nil {
		t.Fatalf("InitWithFile with empty dir should not fail: %v", err)
	}
	if GetLogFilePath() != "" {
		t.Error("GetLogFilePath should return empty when logsDir is empty")
	}
}

func TestInitWithFileNilConfig(t *testing.T) {
	resetLoggerState()

	if err := InitWithFile(false, "/some/path", nil); err != nil {
		t.Fatalf("InitWithFile with nil config should not fail: %v", err)
	}
	if GetLogFilePath() != "" {
		t.Error("GetLogFilePath should return empty when config is nil")
	}
}

func TestSetContext(t *testing.T) {
	resetLoggerState()
	defer ClearContext()

	SetContext("alpine:3", "web")

	ctx := getContext()
	if ctx.Image != "alpine:3" {
		t.Errorf("Image = %q, want %q", ctx.Image, "alpine:3")
	}
	if ctx.Fixture != "web" {
		t.Errorf("Fixture = %q, want %q", ctx.Fixture, "web")
	}

	ClearContext()
	ctx = getContext()
	if ctx.Image != "" || ctx.Fixture != "" {
		t.Error("ClearContext should reset both fields")
	}
}

func TestContextInFileLog(t *testing.T) {
	resetLoggerState()
	tmpDir := t.TempDir()

	if err := InitWithFile(false, tmpDir, &LoggingConfig{MaxSizeMB: 1}); err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	defer CloseFileWriter()
	defer ClearContext()

	SetContext("testimage", "")
	Info().Msg("context test")
	CloseFileWriter()

	content, err := os.ReadFile(filepath.Join(tmpDir, LogFileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), `"image":"testimage"`) {
		t.Error("Log should contain image field")
	}
	if strings.Contains(string(content), `"fixture"`) {
		t.Error("Log should not contain fixture field when empty")
	}
}

func TestGlobalAdapter(t *testing.T) {
	resetLoggerState()
	tmpDir := t.TempDir()

	if err := InitWithFile(true, tmpDir, &LoggingConfig{MaxSizeMB: 1}); err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	defer CloseFileWriter()

	g := Global()
	g.Debug().Msg("via adapter debug")
	g.Warn().Msg("via adapter warn")
	CloseFileWriter()

	content, err := os.ReadFile(filepath.Join(tmpDir, LogFileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "via adapter debug") {
		t.Error("Log file should contain adapter debug message")
	}
	if !strings.Contains(string(content), "via adapter warn") {
		t.Error("Log file should contain adapter warn message")
	}
}

func TestCloseFileWriterResetsState(t *testing.T) {
	resetLoggerState()
	tmpDir := t.TempDir()

	if err := InitWithFile(false, tmpDir, &LoggingConfig{MaxSizeMB: 1}); err != nil {
		t.Fatalf("InitWithFile failed: %v", err)
	}
	if GetLogFilePath() == "" {
		t.Error("GetLogFilePath should return path after InitWithFile")
	}
	if err := CloseFileWriter(); err != nil {
		t.Errorf("CloseFileWriter failed: %v", err)
	}
	if GetLogFilePath() != "" {
		t.Error("GetLogFilePath should return empty after CloseFileWriter")
	}
	if err := CloseFileWriter(); err != nil {
		t.Errorf("Double CloseFileWriter should not error: %v", err)
	}
}

func TestInitWithFilePermissionError(t *testing.T) {
	resetLoggerState()

	err := InitWithFile(false, "/dev/null/deeply/nested/path/that/fails", &LoggingConfig{})
	if err == nil {
		t.Fatal("expected error creating logs directory under /dev/null")
	}
	if !strings.Contains(err.Error(), "failed to create logs directory") {
		t.Errorf("Error should mention directory creation, got: %v", err)
	}
}
