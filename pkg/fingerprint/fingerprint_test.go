package fingerprint

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), []byte(`{"name":"foo","version":"1.0.0"}`))
	writeFile(t, filepath.Join(root, "src", "index.js"), []byte("module.exports = 1;\n"))
	writeFile(t, filepath.Join(root, "src", "lib", "big.bin"), patterned(MmapThreshold*3))
	writeFile(t, filepath.Join(root, "empty.txt"), nil)

	return root
}

func paths(tree Tree) []string {
	out := make([]string, 0, len(tree.Files))
	for _, f := range tree.Files {
		out = append(out, f.RelativePath)
	}

	return out
}

func TestTree_IsDeterministicAndSorted(t *testing.T) {
	root := buildTree(t)
	engine := NewEngine()

	first, err := engine.Tree(root)
	require.NoError(t, err)
	second, err := engine.Tree(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Digest(), second.Digest())
	assert.Equal(t, []string{"empty.txt", "package.json", "src/index.js", "src/lib/big.bin"}, paths(first))
	assert.True(t, sort.SliceIsSorted(first.Files, func(i, j int) bool {
		return first.Files[i].RelativePath < first.Files[j].RelativePath
	}))
	assert.Empty(t, first.Skipped)

	digest, ok := first.Lookup("empty.txt")
	require.True(t, ok)
	assert.Equal(t, emptyDigest, digest)
}

func TestTree_DigestTracksContent(t *testing.T) {
	root := buildTree(t)
	engine := NewEngine()

	before, err := engine.Tree(root)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "src", "index.js"), []byte("module.exports = 2;\n"))

	after, err := engine.Tree(root)
	require.NoError(t, err)

	assert.NotEqual(t, before.Digest(), after.Digest())

	changes := Compare(before, after)
	assert.Equal(t, []string{"src/index.js"}, changes.Modified)
	assert.Empty(t, changes.Added)
	assert.Empty(t, changes.Removed)
}

func TestTree_SkipsDanglingSymlinkWithWarning(t *testing.T) {
	root := buildTree(t)
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken")))
	require.NoError(t, os.Symlink(filepath.Join(root, "package.json"), filepath.Join(root, "alias.json")))

	var logs bytes.Buffer
	engine := NewEngine(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	tree, err := engine.Tree(root)
	require.NoError(t, err)

	assert.NotContains(t, paths(tree), "broken")
	assert.Contains(t, paths(tree), "alias.json")
	require.Len(t, tree.Skipped, 1)
	assert.Equal(t, "broken", tree.Skipped[0].RelativePath)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "broken")

	aliasDigest, _ := tree.Lookup("alias.json")
	realDigest, _ := tree.Lookup("package.json")
	assert.Equal(t, realDigest, aliasDigest)
}

func TestTree_UnreadableFileIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := buildTree(t)
	locked := filepath.Join(root, "locked.txt")
	writeFile(t, locked, []byte("secret"))
	require.NoError(t, os.Chmod(locked, 0o000))

	tree, err := NewEngine().Tree(root)
	require.NoError(t, err)

	assert.NotContains(t, paths(tree), "locked.txt")
	require.Len(t, tree.Skipped, 1)
	assert.Equal(t, "locked.txt", tree.Skipped[0].RelativePath)
}

func TestTree_IgnoreRules(t *testing.T) {
	root := buildTree(t)
	writeFile(t, filepath.Join(root, ".gitignore"), []byte("dist/\n*.log\n"))
	writeFile(t, filepath.Join(root, "dist", "bundle.js"), []byte("bundle"))
	writeFile(t, filepath.Join(root, "debug.log"), []byte("log"))
	writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"))
	writeFile(t, filepath.Join(root, "src", ".gitignore"), []byte("generated.js\n"))
	writeFile(t, filepath.Join(root, "src", "generated.js"), []byte("gen"))

	withRules, err := NewEngine().Tree(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.txt", "package.json", "src/index.js", "src/lib/big.bin"}, paths(withRules))

	withoutRules, err := NewEngine(WithIgnoreRules(false)).Tree(root)
	require.NoError(t, err)
	assert.Contains(t, paths(withoutRules), "dist/bundle.js")
	assert.Contains(t, paths(withoutRules), "debug.log")
	assert.Contains(t, paths(withoutRules), ".git/HEAD")
	assert.Contains(t, paths(withoutRules), "src/generated.js")
}

func TestTree_WorkerCountDoesNotChangeResult(t *testing.T) {
	root := buildTree(t)

	serial, err := NewEngine(WithWorkers(1)).Tree(root)
	require.NoError(t, err)
	parallel, err := NewEngine(WithWorkers(8)).Tree(root)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestTree_RootErrors(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Tree(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, []byte("x"))
	_, err = engine.Tree(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestTree_EmptyDirectory(t *testing.T) {
	tree, err := NewEngine().Tree(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, tree.Files)
	assert.Equal(t, Tree{Files: []FileFingerprint{}}.Digest(), tree.Digest())
}
