// Package fingerprint computes content digests of files and directory trees.
//
// Digests are BLAKE3 output read through the extendable-output reader and
// hex encoded. A file is hashed either through a buffered stream or, when it
// is large enough, through a read-only memory map; both paths yield the same
// digest for the same content.
package fingerprint

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"golang.org/x/sync/errgroup"
)

// FileFingerprint is the digest of one regular file, keyed by its path
// relative to the walked root (slash separated).
type FileFingerprint struct {
	RelativePath string `json:"path"`
	Digest       string `json:"digest"`
}

// SkippedFile records an entry that was left out of a tree fingerprint.
type SkippedFile struct {
	RelativePath string `json:"path"`
	Reason       string `json:"reason"`
}

// Tree is the fingerprint of a directory: all regular files sorted by path,
// plus the entries that could not be hashed.
type Tree struct {
	Files   []FileFingerprint `json:"files"`
	Skipped []SkippedFile     `json:"skipped,omitempty"`
}

// Digest folds the sorted file fingerprints into a single digest.
func (t Tree) Digest() string {
	h := newHasher()
	for _, f := range t.Files {
		_, _ = h.Write([]byte(f.RelativePath))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(f.Digest))
		_, _ = h.Write([]byte{'\n'})
	}

	return finish(h)
}

// Lookup returns the digest recorded for a relative path.
func (t Tree) Lookup(rel string) (string, bool) {
	i := sort.Search(len(t.Files), func(i int) bool { return t.Files[i].RelativePath >= rel })
	if i < len(t.Files) && t.Files[i].RelativePath == rel {
		return t.Files[i].Digest, true
	}

	return "", false
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostics sink for skipped entries.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIgnoreRules toggles skipping of hidden entries and .gitignore matches.
func WithIgnoreRules(enabled bool) Option {
	return func(e *Engine) {
		e.ignoreRules = enabled
	}
}

// WithWorkers bounds how many files are hashed at once. Values below 1 use
// the number of CPUs.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// Engine walks directory trees and fingerprints their files.
type Engine struct {
	logger      *slog.Logger
	ignoreRules bool
	workers     int
}

// NewEngine constructs an Engine. Ignore rules are on by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:      slog.Default(),
		ignoreRules: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}

	return e
}

type candidate struct {
	path string
	rel  string
}

// Tree fingerprints every regular file under root. Per-file failures are
// logged and reported in Tree.Skipped; only an unusable root is an error.
func (e *Engine) Tree(root string) (Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Tree{}, fmt.Errorf("stat root %s: %w", root, err)
	}

	if !info.IsDir() {
		return Tree{}, fmt.Errorf("root %s is not a directory", root)
	}

	matcher := e.loadIgnoreMatcher(root)

	var (
		candidates []candidate
		skipped    []SkippedFile
	)

	skip := func(rel string, reason error) {
		e.logger.Warn("Skipping entry while fingerprinting", "root", root, "path", rel, "error", reason)
		skipped = append(skipped, SkippedFile{RelativePath: rel, Reason: reason.Error()})
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if path == root {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if err != nil {
			skip(rel, err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if e.ignored(matcher, rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			return nil
		}

		switch mode := d.Type(); {
		case mode.IsRegular():
			candidates = append(candidates, candidate{path: path, rel: rel})
		case mode&fs.ModeSymlink != 0:
			target, statErr := os.Stat(path)
			if statErr != nil {
				skip(rel, fmt.Errorf("dangling symlink: %w", statErr))
				return nil
			}

			if target.Mode().IsRegular() {
				candidates = append(candidates, candidate{path: path, rel: rel})
			}
		default:
			e.logger.Debug("Ignoring non-regular file", "path", rel, "mode", mode.String())
		}

		return nil
	})
	if walkErr != nil {
		return Tree{}, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	files, failed := e.hashCandidates(candidates)
	for _, f := range failed {
		e.logger.Warn("Skipping unreadable file while fingerprinting", "root", root, "path", f.RelativePath, "error", f.Reason)
	}

	skipped = append(skipped, failed...)

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].RelativePath < skipped[j].RelativePath })

	return Tree{Files: files, Skipped: skipped}, nil
}

// hashCandidates hashes files concurrently. Results are written by index so
// no locking is needed.
func (e *Engine) hashCandidates(candidates []candidate) ([]FileFingerprint, []SkippedFile) {
	digests := make([]string, len(candidates))
	errs := make([]error, len(candidates))

	var group errgroup.Group

	group.SetLimit(e.workers)

	for i, c := range candidates {
		i, c := i, c
		group.Go(func() error {
			digests[i], errs[i] = HashFile(c.path)
			return nil
		})
	}

	_ = group.Wait()

	files := make([]FileFingerprint, 0, len(candidates))

	var failed []SkippedFile

	for i, c := range candidates {
		if errs[i] != nil {
			failed = append(failed, SkippedFile{RelativePath: c.rel, Reason: errs[i].Error()})
			continue
		}

		files = append(files, FileFingerprint{RelativePath: c.rel, Digest: digests[i]})
	}

	return files, failed
}

func (e *Engine) ignored(matcher gitignore.Matcher, rel string, d fs.DirEntry) bool {
	if !e.ignoreRules {
		return false
	}

	if strings.HasPrefix(d.Name(), ".") {
		return true
	}

	if matcher == nil {
		return false
	}

	return matcher.Match(strings.Split(rel, "/"), d.IsDir())
}

func (e *Engine) loadIgnoreMatcher(root string) gitignore.Matcher {
	if !e.ignoreRules {
		return nil
	}

	patterns, err := readIgnorePatterns(root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn("Failed to read ignore rules", "root", root, "error", err)
	}

	if len(patterns) == 0 {
		return nil
	}

	return gitignore.NewMatcher(patterns)
}
