// Package storage provides the flat upload directory used by the local stub
// backend in place of the hosted media service.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FS stores uploaded blobs as plain files in a single directory.
type FS struct {
	root string // absolute path to the uploads directory
}

// NewFS creates an FS rooted at the given directory. The directory must
// already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safeName validates that the name is a plain filename (no path separators,
// no traversal) and returns the absolute path under the uploads directory.
func (f *FS) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid filename: %s", name)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes uploads directory: %s", name)
	}
	return abs, nil
}

// Write atomically stores content under name: tmp file, fsync, rename.
// Returns the number of bytes written.
func (f *FS) Write(name string, content io.Reader) (int64, error) {
	abs, err := f.safeName(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(f.root, ".mannaz-upload-*")
	if err != nil {
		return 0, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, content)
	if err != nil {
		return 0, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return 0, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return written, nil
}

// Path returns the absolute on-disk path for serving the named blob, or an
// error when the blob does not exist.
func (f *FS) Path(name string) (string, error) {
	abs, err := f.safeName(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return abs, nil
}

// List returns the names of all stored blobs.
func (f *FS) List() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}
