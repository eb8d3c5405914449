package domain

import "errors"

var (
	// ErrScriptFailed is returned by a run when at least one package result is an error.
	ErrScriptFailed = errors.New("script failed in one or more packages")
	// ErrManifestMissingField is wrapped when a manifest lacks name or version.
	ErrManifestMissingField = errors.New("manifest is missing a required field")
	// ErrUnknownArchetype is returned when an archetype id is not registered.
	ErrUnknownArchetype = errors.New("unknown archetype")
	// ErrInvalidScriptName is returned for empty script names or names that
	// would be read as a flag by the underlying tool.
	ErrInvalidScriptName = errors.New("invalid script name")
	// ErrPackageNotFound is returned when a requested package is not part of the project.
	ErrPackageNotFound = errors.New("package not found")
)
