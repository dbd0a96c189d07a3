package securestore

import (
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath trims user supplied keystore paths.
func NormalizePath(path string) string {
	return filepath.Clean(strings.TrimSpace(path))
}

// ReadFile loads a record from disk. I/O errors are returned unchanged so
// callers can inspect them; format errors wrap ErrInvalid.
func ReadFile(path string) (*Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(raw)
}

// WriteFile persists a record atomically: the data is written to a temp file
// in the same directory, synced, then renamed over path. On failure nothing
// is left at path.
func WriteFile(path string, rec *Record) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
