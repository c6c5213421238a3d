package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/tea/internal/core/semver"
)

// RootRequirer names the user's requirement set in constraint chains.
const RootRequirer = "root"

// ConstraintSource records who imposed a range on a package and how the resolver got there.
type ConstraintSource struct {
	// Requirer is RootRequirer or the name@version that declared the dependency.
	Requirer string
	// Range is the range the requirer imposed.
	Range semver.Range
	// Constraint is the range as it was written.
	Constraint string
	// Chain is the path from the root requirement set to the requirer, inclusive.
	Chain []string
}

func (s ConstraintSource) String() string {
	constraint := s.Constraint
	if constraint == "" {
		constraint = s.Range.String()
	}
	return fmt.Sprintf("%s requires %s (via %s)", s.Requirer, constraint, strings.Join(s.Chain, " -> "))
}

// ResolutionError reports why a requirement set cannot be turned into a plan.
// Nothing is installed when resolution fails.
type ResolutionError struct {
	// Kind is one of ErrUnknownPackage, ErrUnsatisfiableRange, ErrConflictingConstraints,
	// ErrCycleDetected or ErrResolutionDiverged.
	Kind    error
	Package PackageName
	// Sources lists every constraint active on Package when resolution failed.
	Sources []ConstraintSource
	// Cycle is the offending path when Kind is ErrCycleDetected.
	Cycle []string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	switch {
	case len(e.Cycle) > 0:
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Cycle, " -> "))
	case !e.Package.IsZero():
		b.WriteString(" for ")
		b.WriteString(e.Package.String())
	}

	for _, src := range e.Sources {
		b.WriteString("\n  ")
		b.WriteString(src.String())
	}
	return b.String()
}

// Unwrap exposes the kind and the ErrResolution classification to errors.Is.
func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Kind}
}

// Requirers returns the requirer of every source, in order.
func (e *ResolutionError) Requirers() []string {
	out := make([]string, len(e.Sources))
	for i, s := range e.Sources {
		out[i] = s.Requirer
	}
	return out
}

// ChecksumError details an artifact whose digest differs from the declared one.
type ChecksumError struct {
	Path     string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// FetchError reports a failure to obtain the artifact of one node.
type FetchError struct {
	Package PackageName
	Version semver.Version
	URL     string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s@%s: %v", ErrFetch.Error(), e.Package, e.Version, e.Err)
}

// Unwrap exposes ErrFetch and the underlying cause.
func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

// HydrateError reports a failure to unpack one node into the cellar.
type HydrateError struct {
	Package PackageName
	Version semver.Version
	Path    string
	Err     error
}

func (e *HydrateError) Error() string {
	return fmt.Sprintf("%s %s@%s: %v", ErrHydrate.Error(), e.Package, e.Version, e.Err)
}

// Unwrap exposes ErrHydrate and the underlying cause.
func (e *HydrateError) Unwrap() []error {
	return []error{ErrHydrate, e.Err}
}

// LinkError reports a failure to create or replace one shortcut.
type LinkError struct {
	Shortcut string
	Path     string
	Err      error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", ErrLink.Error(), e.Shortcut, e.Path, e.Err)
}

// Unwrap exposes ErrLink and the underlying cause.
func (e *LinkError) Unwrap() []error {
	return []error{ErrLink, e.Err}
}

// InstallError aggregates the node failures of an install run.
// Nodes hydrated before the failure stay in the cellar.
type InstallError struct {
	Failures []error
}

func (e *InstallError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return ErrInstall.Error() + ": " + strings.Join(msgs, "; ")
}

// Unwrap exposes ErrInstall and every node failure.
func (e *InstallError) Unwrap() []error {
	return append([]error{ErrInstall}, e.Failures...)
}
