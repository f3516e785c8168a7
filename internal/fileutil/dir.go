package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirMode is the permission used for directories created by EnsureDir.
const DirMode os.FileMode = 0o750

// EnsureDir creates path and any missing parents with DirMode. It returns nil
// if path already is a directory, and an error if it exists as anything else.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, DirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// EnsureDirForFile creates the parent directory of filePath, so that the file
// can be opened for writing.
func EnsureDirForFile(filePath string) error {
	if err := EnsureDir(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", filePath, err)
	}
	return nil
}
