package domain

import (
	"slices"
	"strings"
	"unique"

	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
)

// PackageName identifies a package, e.g. "gnu.org/wget".
// Names are interned so they are cheap to compare and to use as map keys.
type PackageName struct {
	h unique.Handle[string]
}

// NewPackageName interns s as a PackageName.
func NewPackageName(s string) PackageName {
	return PackageName{h: unique.Make(s)}
}

// String returns the name.
func (n PackageName) String() string {
	var zero unique.Handle[string]
	if n.h == zero {
		return ""
	}
	return n.h.Value()
}

// IsZero reports whether n is the empty name.
func (n PackageName) IsZero() bool {
	return n.String() == ""
}

// Compare orders names lexically.
func (n PackageName) Compare(o PackageName) int {
	return strings.Compare(n.String(), o.String())
}

// MarshalText implements encoding.TextMarshaler.
func (n PackageName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PackageName) UnmarshalText(text []byte) error {
	*n = NewPackageName(string(text))
	return nil
}

// Requirement asks for a package within a version range.
type Requirement struct {
	Name  PackageName
	Range semver.Range
	// Constraint is the range as written, kept for error reporting.
	Constraint string
}

// NewRequirement parses constraint and builds a requirement on name.
func NewRequirement(name, constraint string) (Requirement, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t") {
		return Requirement{}, zerr.With(ErrInvalidRequirement, "requirement", name+constraint)
	}

	constraint = strings.TrimSpace(constraint)
	r, err := semver.ParseRange(constraint)
	if err != nil {
		return Requirement{}, zerr.With(zerr.Wrap(err, ErrInvalidRequirement.Error()), "package", name)
	}
	if constraint == "" {
		constraint = "*"
	}

	return Requirement{Name: NewPackageName(name), Range: r, Constraint: constraint}, nil
}

// ParseRequirement parses "name", "name@1.2", "name@^1.2", "name^1", "name~1.2" or "name>=1 <2".
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, "@^~<>=")
	if idx <= 0 {
		if idx == 0 {
			return Requirement{}, zerr.With(ErrInvalidRequirement, "requirement", s)
		}
		return NewRequirement(s, "")
	}

	name, constraint := s[:idx], s[idx:]
	// "name@^1.2" and "name@>=1" carry an explicit operator after the separator.
	if strings.HasPrefix(constraint, "@") && len(constraint) > 1 && strings.ContainsRune("^~<>=*", rune(constraint[1])) {
		constraint = constraint[1:]
	}
	return NewRequirement(name, constraint)
}

func (r Requirement) String() string {
	constraint := r.Constraint
	if constraint == "" {
		constraint = r.Range.String()
	}
	if constraint == "*" {
		return r.Name.String()
	}
	if strings.ContainsAny(constraint[:1], "^~<>=@") {
		return r.Name.String() + constraint
	}
	return r.Name.String() + "@" + constraint
}

// PantryVersion is one published version of a package and what it needs.
type PantryVersion struct {
	Version semver.Version
	// Dependencies are declared in recipe order.
	Dependencies []Requirement
	// Checksums maps ChecksumKey(platform, compression) to a hex sha256 digest.
	Checksums map[string]string
}

// Checksum returns the declared digest of the artifact variant, if any.
func (v PantryVersion) Checksum(platform string, c Compression) (string, bool) {
	sum, ok := v.Checksums[ChecksumKey(platform, c)]
	return sum, ok
}

// ChecksumKey builds the recipe key for an artifact variant, e.g. "linux/x86-64/gz".
func ChecksumKey(platform string, c Compression) string {
	return platform + "/" + string(c)
}

// PantryEntry is everything the pantry knows about one package.
// Entries are shared by every reader of a snapshot and must be treated as read-only.
type PantryEntry struct {
	Name PackageName
	// Provides lists the program paths the package installs, e.g. "bin/wget".
	Provides []string
	// Versions are sorted ascending.
	Versions []PantryVersion
}

// Lookup returns the recipe of an exact version.
func (e PantryEntry) Lookup(v semver.Version) (PantryVersion, bool) {
	i, found := slices.BinarySearchFunc(e.Versions, v, func(pv PantryVersion, target semver.Version) int {
		return pv.Version.Compare(target)
	})
	if !found {
		return PantryVersion{}, false
	}
	return e.Versions[i], true
}

// VersionList returns the known versions, ascending.
func (e PantryEntry) VersionList() []semver.Version {
	out := make([]semver.Version, len(e.Versions))
	for i, v := range e.Versions {
		out[i] = v.Version
	}
	return out
}

// PantryIndex is the read-only view of the pantry the resolver works against.
type PantryIndex interface {
	Entry(name PackageName) (PantryEntry, bool)
}

// PantrySnapshot is an immutable, fully loaded pantry.
type PantrySnapshot struct {
	entries map[PackageName]PantryEntry
	names   []PackageName
	digest  string
}

// NewPantrySnapshot builds a snapshot from entries. Versions of every entry are sorted ascending.
// digest identifies the content the snapshot was loaded from.
func NewPantrySnapshot(entries []PantryEntry, digest string) *PantrySnapshot {
	s := &PantrySnapshot{
		entries: make(map[PackageName]PantryEntry, len(entries)),
		names:   make([]PackageName, 0, len(entries)),
		digest:  digest,
	}

	for _, e := range entries {
		if _, exists := s.entries[e.Name]; exists {
			continue
		}
		versions := slices.Clone(e.Versions)
		slices.SortFunc(versions, func(a, b PantryVersion) int { return a.Version.Compare(b.Version) })
		e.Versions = versions
		s.entries[e.Name] = e
		s.names = append(s.names, e.Name)
	}

	slices.SortFunc(s.names, PackageName.Compare)
	return s
}

// Entry returns the entry for name.
func (s *PantrySnapshot) Entry(name PackageName) (PantryEntry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Names returns every package name, sorted.
func (s *PantrySnapshot) Names() []PackageName {
	return slices.Clone(s.names)
}

// Len returns the number of packages.
func (s *PantrySnapshot) Len() int {
	return len(s.entries)
}

// Digest identifies the pantry content the snapshot was built from.
func (s *PantrySnapshot) Digest() string {
	return s.digest
}
