package utils

import (
	"fmt"
	"os"
)

// EnsureStorageDir creates the storage directory tree if missing.
func EnsureStorageDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", path, err)
	}
	return nil
}
