package fingerprint

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Changes lists the paths that differ between two tree fingerprints.
type Changes struct {
	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// Empty reports whether the two trees were identical.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Compare walks two sorted file lists in step and reports what changed from
// previous to current.
func Compare(previous, current Tree) Changes {
	var changes Changes

	i, j := 0, 0
	for i < len(previous.Files) || j < len(current.Files) {
		switch {
		case j >= len(current.Files):
			changes.Removed = append(changes.Removed, previous.Files[i].RelativePath)
			i++
		case i >= len(previous.Files):
			changes.Added = append(changes.Added, current.Files[j].RelativePath)
			j++
		case previous.Files[i].RelativePath < current.Files[j].RelativePath:
			changes.Removed = append(changes.Removed, previous.Files[i].RelativePath)
			i++
		case previous.Files[i].RelativePath > current.Files[j].RelativePath:
			changes.Added = append(changes.Added, current.Files[j].RelativePath)
			j++
		default:
			if previous.Files[i].Digest != current.Files[j].Digest {
				changes.Modified = append(changes.Modified, current.Files[j].RelativePath)
			}

			i++
			j++
		}
	}

	return changes
}

// UnifiedDiff renders both listings as "digest  path" lines and returns their
// unified diff. It is empty when the trees match.
func UnifiedDiff(previous, current Tree, fromName, toName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(listing(previous)),
		B:        difflib.SplitLines(listing(current)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  1,
	}

	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("render diff: %w", err)
	}

	return out, nil
}

func listing(t Tree) string {
	var b strings.Builder
	for _, f := range t.Files {
		fmt.Fprintf(&b, "%s  %s\n", f.Digest, f.RelativePath)
	}

	return b.String()
}
