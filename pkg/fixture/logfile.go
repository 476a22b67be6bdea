package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gofrs/flock"
)

var nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}_ ]`)

// LogFileName returns the base name logs for containerID are saved under:
// "<name>_<id>" (or "<id>" without a name), keeping only letters, digits,
// underscores and spaces, with spaces turned into underscores, plus ".txt".
// Letters and digits outside ASCII are kept.
func LogFileName(name, containerID string) string {
	base := containerID
	if name != "" {
		base = name + "_" + containerID
	}
	base = nonWordChars.ReplaceAllString(base, "")
	return strings.ReplaceAll(base, " ", "_") + ".txt"
}

// writeLogFile writes data to fileName inside dir, creating dir if needed.
// The file is replaced atomically while holding an advisory lock.
func writeLogFile(dir, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	path, err := securejoin.SecureJoin(dir, fileName)
	if err != nil {
		return "", fmt.Errorf("resolving log path in %s: %w", dir, err)
	}

	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("acquiring file lock for %s: %w", path, err)
	}
	if !locked {
		return "", fmt.Errorf("timed out acquiring file lock for %s", path)
	}
	defer func() {
		_ = fl.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	return path, atomicWriteFile(path, data, 0o644)
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ctfdocker-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions on temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	success = true
	return nil
}
