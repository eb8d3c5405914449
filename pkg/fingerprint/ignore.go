package fingerprint

import (
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// readIgnorePatterns collects .gitignore patterns from root and every
// directory below it.
func readIgnorePatterns(root string) ([]gitignore.Pattern, error) {
	return gitignore.ReadPatterns(osfs.New(root), nil)
}
