package model

import "mrt.dev/pkg/mrt/pkg/fingerprint"

// PackageFingerprint is the content fingerprint of one package directory.
type PackageFingerprint struct {
	Package Package          `json:"package"`
	Digest  string           `json:"digest"`
	Tree    fingerprint.Tree `json:"tree"`
	// Changes and Diff are set only when compared against a previous listing.
	Changes *fingerprint.Changes `json:"changes,omitempty"`
	Diff    string               `json:"diff,omitempty"`
}
