package domain

import (
	"fmt"
	"log/slog"
	"strings"

	"mrt.dev/pkg/mrt/internal/adapter"
	m "mrt.dev/pkg/mrt/internal/model"
)

// DefaultPackagePatterns are the discovery globs used when the manifest names none.
var DefaultPackagePatterns = []string{"./packages/*", "./apps/*"}

// Project discovers packages under a root directory from glob patterns.
type Project struct {
	root     m.Path
	patterns []string
	fs       adapter.SourceFSAdapter
	registry *Registry
	logger   *slog.Logger
}

// NewProject constructs a Project. Patterns are resolved relative to root.
func NewProject(root m.Path, patterns []string, fs adapter.SourceFSAdapter, registry *Registry, logger *slog.Logger) *Project {
	if logger == nil {
		logger = slog.Default()
	}

	if len(patterns) == 0 {
		patterns = DefaultPackagePatterns
	}

	return &Project{
		root:     root,
		patterns: patterns,
		fs:       fs,
		registry: registry,
		logger:   logger,
	}
}

// Root returns the project root.
func (p *Project) Root() m.Path { return p.root }

// Patterns returns the discovery globs in evaluation order.
func (p *Project) Patterns() []string { return p.patterns }

// CandidateDirs expands every pattern into directories, in pattern order
// then lexical order. Broken patterns are logged and skipped, and a
// directory matched by more than one pattern is listed once.
func (p *Project) CandidateDirs() []m.Path {
	seen := make(map[m.Path]struct{})

	var dirs []m.Path

	for _, pattern := range p.patterns {
		matches, err := p.fs.Glob(string(p.fs.JoinPath(string(p.root), pattern)))
		if err != nil {
			p.logger.Warn("Skipping package pattern", "pattern", pattern, "error", err)
			continue
		}

		for _, match := range matches {
			if !p.fs.IsDir(match) {
				continue
			}

			key := match
			if resolved, err := p.fs.Canonical(match); err == nil {
				key = resolved
			}

			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			dirs = append(dirs, match)
		}
	}

	return dirs
}

// Packages classifies every candidate directory. Unless all is set, packages
// that are not Valid are logged and left out.
func (p *Project) Packages(all bool) []m.Package {
	dirs := p.CandidateDirs()
	packages := make([]m.Package, 0, len(dirs))

	for _, dir := range dirs {
		pkg := p.registry.NewPackage(p.root, dir)

		if !all && !pkg.Status.Valid() {
			switch pkg.Status.Kind {
			case m.StatusCannotDetectArchetype:
				p.logger.Warn("Skipping package: no archetype detected", "path", pkg.RelativePath)
			default:
				p.logger.Warn("Skipping package: manifest unreadable", "path", pkg.RelativePath, "reason", pkg.Status.Reason)
			}

			continue
		}

		packages = append(packages, pkg)
	}

	return packages
}

// Select returns the Valid packages whose name or relative path is in
// selectors, in selector order. An empty selector list returns every Valid
// package.
func (p *Project) Select(selectors []string) ([]m.Package, error) {
	packages := p.Packages(false)
	if len(selectors) == 0 {
		return packages, nil
	}

	selected := make([]m.Package, 0, len(selectors))

	var missing []string

	for _, selector := range selectors {
		found := false

		for _, pkg := range packages {
			if pkg.Name == selector || string(pkg.RelativePath) == strings.TrimPrefix(selector, "./") {
				selected = append(selected, pkg)
				found = true

				break
			}
		}

		if !found {
			missing = append(missing, selector)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, strings.Join(missing, ", "))
	}

	return selected, nil
}
