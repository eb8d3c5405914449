// Package model defines the data structures shared by the monorepo tool.
package model

// Path represents a file system path.
type Path string

// NotAvailable is the placeholder for identity fields that could not be read.
const NotAvailable = "n/a"

// StatusKind is the classification outcome of a package directory.
type StatusKind string

const (
	// StatusValid means the manifest was read and all fields are populated.
	StatusValid StatusKind = "valid"
	// StatusCannotRead means an archetype matched but its manifest could not be parsed.
	StatusCannotRead StatusKind = "cannot_read"
	// StatusCannotDetectArchetype means no archetype detector matched the directory.
	StatusCannotDetectArchetype StatusKind = "cannot_detect_archetype"
)

// PackageStatus is the classification outcome plus the reason for CannotRead.
type PackageStatus struct {
	Kind   StatusKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

// Valid reports whether the package was fully classified.
func (s PackageStatus) Valid() bool {
	return s.Kind == StatusValid
}

func (s PackageStatus) String() string {
	switch s.Kind {
	case StatusValid:
		return "Valid"
	case StatusCannotRead:
		return "CannotRead(" + s.Reason + ")"
	case StatusCannotDetectArchetype:
		return "CannotDetectArchetype"
	}

	return string(s.Kind)
}

// Package is one detected unit of work. Values are immutable after
// construction and are copied freely between goroutines.
type Package struct {
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	RelativePath Path          `json:"relative_path"`
	AbsolutePath Path          `json:"absolute_path"`
	ArchetypeID  string        `json:"archetype_id"`
	Status       PackageStatus `json:"status"`
}

// NewValidPackage builds a package whose manifest was read successfully.
func NewValidPackage(rel, abs Path, archetypeID, name, version string) Package {
	return Package{
		Name:         name,
		Version:      version,
		RelativePath: rel,
		AbsolutePath: abs,
		ArchetypeID:  archetypeID,
		Status:       PackageStatus{Kind: StatusValid},
	}
}

// NewUnreadablePackage builds a package whose archetype matched but whose
// manifest could not be read.
func NewUnreadablePackage(rel, abs Path, archetypeID, reason string) Package {
	return Package{
		Name:         NotAvailable,
		Version:      NotAvailable,
		RelativePath: rel,
		AbsolutePath: abs,
		ArchetypeID:  archetypeID,
		Status:       PackageStatus{Kind: StatusCannotRead, Reason: reason},
	}
}

// NewUndetectedPackage builds a package no archetype recognised.
func NewUndetectedPackage(rel, abs Path) Package {
	return Package{
		Name:         NotAvailable,
		Version:      NotAvailable,
		RelativePath: rel,
		AbsolutePath: abs,
		Status:       PackageStatus{Kind: StatusCannotDetectArchetype},
	}
}
