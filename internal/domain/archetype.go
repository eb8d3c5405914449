package domain

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"mrt.dev/pkg/mrt/internal/adapter"
	m "mrt.dev/pkg/mrt/internal/model"
)

// PackageInfo is the identity read from a package manifest.
type PackageInfo struct {
	Name    string
	Version string
}

// Archetype bundles how one ecosystem is detected, read and run.
type Archetype interface {
	// ID is the stable identifier carried by classified packages.
	ID() string
	// Matches inspects the immediate contents of dir.
	Matches(dir m.Path) bool
	// ReadInfo extracts name and version from the manifest in dir.
	ReadInfo(dir m.Path) (PackageInfo, error)
	// ScriptRunner returns the runner chain used for this archetype.
	ScriptRunner() ScriptRunner
}

// Registry is the fixed, ordered list of archetypes. Order is priority: the
// first archetype whose detector matches wins.
type Registry struct {
	archetypes []Archetype
	fs         adapter.SourceFSAdapter
	logger     *slog.Logger
}

// NewRegistry builds a registry over archetypes in priority order.
func NewRegistry(fs adapter.SourceFSAdapter, logger *slog.Logger, archetypes ...Archetype) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{archetypes: archetypes, fs: fs, logger: logger}
}

// NewDefaultRegistry builds the registry of supported ecosystems, npm first
// and poetry second, each with the generic runners in front of its own.
func NewDefaultRegistry(fs adapter.SourceFSAdapter, proc adapter.ProcessAdapter, logger *slog.Logger, opts ...WrapperOption) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	opts = append([]WrapperOption{WithWrapperLogger(logger)}, opts...)

	return NewRegistry(fs, logger,
		NewNpmArchetype(fs, WrapWithGenericRunners(proc, fs, NewNpmRunner(proc), opts...)),
		NewPoetryArchetype(fs, WrapWithGenericRunners(proc, fs, NewPoetryRunner(proc, fs), opts...), logger),
	)
}

// WrapWithGenericRunners chains the generic build-tool runners ahead of
// native, so a make target shadows an ecosystem script of the same name.
func WrapWithGenericRunners(proc adapter.ProcessAdapter, fs adapter.SourceFSAdapter, native ScriptRunner, opts ...WrapperOption) *WrapperRunner {
	return NewWrapperRunner([]ScriptRunner{NewMakeRunner(proc, fs), native}, opts...)
}

// Archetypes returns the registered archetypes in priority order.
func (r *Registry) Archetypes() []Archetype {
	return r.archetypes
}

// Classify returns the first archetype matching dir.
func (r *Registry) Classify(dir m.Path) (Archetype, bool) {
	for _, archetype := range r.archetypes {
		if archetype.Matches(dir) {
			return archetype, true
		}
	}

	return nil, false
}

// ByID returns the archetype registered under id.
func (r *Registry) ByID(id string) (Archetype, bool) {
	for _, archetype := range r.archetypes {
		if archetype.ID() == id {
			return archetype, true
		}
	}

	return nil, false
}

// RunnerFor returns the runner chain for a package's archetype.
func (r *Registry) RunnerFor(pkg m.Package) (ScriptRunner, error) {
	archetype, ok := r.ByID(pkg.ArchetypeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, pkg.ArchetypeID)
	}

	return archetype.ScriptRunner(), nil
}

// NewPackage classifies dir and builds its package record. root is the
// project root the relative path is computed from.
func (r *Registry) NewPackage(root, dir m.Path) m.Package {
	abs, err := r.fs.Canonical(dir)
	if err != nil {
		r.logger.Warn("Failed to canonicalize package path", "path", dir, "error", err)
		abs = dir
	}

	rel := r.relativePath(root, abs)

	archetype, ok := r.Classify(abs)
	if !ok {
		return m.NewUndetectedPackage(rel, abs)
	}

	info, err := archetype.ReadInfo(abs)
	if err != nil {
		return m.NewUnreadablePackage(rel, abs, archetype.ID(), err.Error())
	}

	return m.NewValidPackage(rel, abs, archetype.ID(), info.Name, info.Version)
}

func (r *Registry) relativePath(root, abs m.Path) m.Path {
	base, err := r.fs.Canonical(root)
	if err != nil {
		base = root
	}

	rel, err := r.fs.RelPath(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(string(rel), ".."+string(filepath.Separator)) {
		return abs
	}

	return m.Path(filepath.ToSlash(string(rel)))
}
