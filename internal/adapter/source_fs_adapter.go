// Package adapter contains the filesystem and process adapters the domain
// layer works through.
package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	m "mrt.dev/pkg/mrt/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations used for package
// discovery and archetype detection, so the domain logic can be tested
// without touching real project layouts.
type SourceFSAdapter interface {
	// Glob expands a pattern (supporting "**") into matching paths in
	// lexical order.
	Glob(pattern string) ([]m.Path, error)

	// IsDir reports whether path exists and is a directory.
	IsDir(path m.Path) bool

	// FileExists reports whether path exists. Errors count as absence.
	FileExists(path m.Path) bool

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// Canonical returns the absolute path with symlinks resolved.
	Canonical(path m.Path) (m.Path, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalSourceFSAdapter implements SourceFSAdapter on the local filesystem.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Glob expands pattern with doublestar semantics.
func (a *LocalSourceFSAdapter) Glob(pattern string) ([]m.Path, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	paths := make([]m.Path, 0, len(matches))
	for _, match := range matches {
		paths = append(paths, m.Path(match))
	}

	return paths, nil
}

// IsDir reports whether path is a directory.
func (a *LocalSourceFSAdapter) IsDir(path m.Path) bool {
	info, err := os.Stat(string(path))
	return err == nil && info.IsDir()
}

// FileExists reports whether path exists.
func (a *LocalSourceFSAdapter) FileExists(path m.Path) bool {
	_, err := os.Stat(string(path))
	return err == nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	// #nosec G304 - manifest paths are derived from discovered package dirs
	return os.ReadFile(string(path))
}

// Canonical resolves path to an absolute, symlink-free form.
func (a *LocalSourceFSAdapter) Canonical(path m.Path) (m.Path, error) {
	resolved, err := canonical(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(resolved), nil
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.EvalSymlinks(abs)
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
