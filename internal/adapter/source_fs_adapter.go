// Package adapter contains filesystem and infrastructure adapters for the
// obfuscator CLI.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the workflow relies on
// when collecting and writing source files, so the workflow can be tested
// without touching the disk.
type SourceFSAdapter interface {
	// Walk collects the files under root. When root is a single file it is
	// returned alone. Hidden directories and common junk are skipped.
	Walk(root m.Path) ([]m.Path, error)

	// ReadFile loads a file and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFileAtomic writes content to path through a temp file and rename,
	// so a crashed run never leaves a half-written output.
	WriteFileAtomic(path m.Path, content []byte) error

	// Hash returns a stable fingerprint for the given content.
	Hash(content []byte) string
}

type localFS struct{}

// NewSourceFS returns the os-backed filesystem adapter.
func NewSourceFS() SourceFSAdapter {
	return &localFS{}
}

// Walk implements SourceFSAdapter.
func (l *localFS) Walk(root m.Path) ([]m.Path, error) {
	info, err := os.Stat(string(root))
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []m.Path{root}, nil
	}

	var paths []m.Path

	err = filepath.WalkDir(string(root), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()

		if d.IsDir() {
			if path != string(root) && (strings.HasPrefix(name, ".") || name == "__pycache__" || name == "node_modules") {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		paths = append(paths, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return paths, nil
}

// ReadFile implements SourceFSAdapter.
func (l *localFS) ReadFile(path m.Path) ([]byte, error) {
	content, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return content, nil
}

// WriteFileAtomic implements SourceFSAdapter.
func (l *localFS) WriteFileAtomic(path m.Path, content []byte) error {
	dir := filepath.Dir(string(path))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".obfuscator-*")
	if err != nil {
		return fmt.Errorf("temp file in %s: %w", dir, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, string(path)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}

	return nil
}

// Hash implements SourceFSAdapter.
func (l *localFS) Hash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
