// Package fsutil provides best-effort filesystem helpers for the upload
// directory. Failures are logged and reported as false, never returned.
package fsutil

import (
	"errors"
	"os"

	"github.com/custodia-labs/docuchat/internal/logger"
)

// EnsureDir creates the directory and any parents. It reports success.
func EnsureDir(path string) bool {
	if err := os.MkdirAll(path, 0o750); err != nil {
		logger.Error("Failed to create directory %s: %v", path, err)
		return false
	}
	return true
}

// SafeDelete removes the file if it exists. It reports whether a file was removed.
func SafeDelete(path string) bool {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false
	}
	if err := os.Remove(path); err != nil {
		logger.Error("Failed to delete file %s: %v", path, err)
		return false
	}
	return true
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
