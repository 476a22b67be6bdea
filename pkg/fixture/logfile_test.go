package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFileName(t *testing.T) {
	tests := []struct {
		name, id, want string
	}{
		{"web", "abc123", "web_abc123.txt"},
		{"", "abc123", "abc123.txt"},
		{"my web server", "abc", "my_web_server_abc.txt"},
		{"../../etc/passwd", "abc", "etcpasswd_abc.txt"},
		{"db:primary-1", "abc", "dbprimary1_abc.txt"},
		{"café web", "abc", "café_web_abc.txt"},
		{"サーバー", "abc", "サーバー_abc.txt"},
		{"v²/β", "abc", "v²β_abc.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogFileName(tt.name, tt.id), tt.name)
	}
}

func TestWriteLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := writeLogFile(dir, "web_abc.txt", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "web_abc.txt"), path)

	_, err = writeLogFile(dir, "web_abc.txt", []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp and lock files should be cleaned up")
}
