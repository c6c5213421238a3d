// Package semver implements the version and version-range value types used by the resolver.
package semver

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	modsemver "golang.org/x/mod/semver"
)

var (
	// ErrInvalidVersion is returned when a version string cannot be parsed.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrInvalidRange is returned when a range expression cannot be parsed.
	ErrInvalidRange = zerr.New("invalid version range")
)

// versionRegex accepts one to three numeric components with optional pre-release and build metadata.
var versionRegex = regexp.MustCompile(
	`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-([0-9A-Za-z\-\.]+))?(?:\+([0-9A-Za-z\-\.]+))?$`,
)

// Version is a parsed semantic version.
// The zero value is 0.0.0. Build metadata is carried for display but ignored by Compare.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Build      string
}

// Parse parses a version such as "1.2.3", "v1.2", or "2.0.0-rc.1+build.5".
// Missing minor and patch components default to zero.
func Parse(s string) (Version, error) {
	v, _, err := parsePartial(s)
	return v, err
}

// MustParse is like Parse but panics on error. It is intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// parsePartial parses s and also reports how many numeric components were written.
func parsePartial(s string) (Version, int, error) {
	s = strings.TrimSpace(s)
	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		return Version{}, 0, zerr.With(ErrInvalidVersion, "version", s)
	}

	var v Version
	components := 0
	for i, dst := range []*int{&v.Major, &v.Minor, &v.Patch} {
		if m[i+1] == "" {
			break
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, 0, zerr.With(zerr.Wrap(err, ErrInvalidVersion.Error()), "version", s)
		}
		*dst = n
		components++
	}

	v.Prerelease = m[4]
	v.Build = m[5]

	if v.Prerelease != "" && !modsemver.IsValid("v0.0.0-"+v.Prerelease) {
		return Version{}, 0, zerr.With(ErrInvalidVersion, "version", s)
	}

	return v, components, nil
}

// String renders the version in canonical major.minor.patch form.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.Major))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.Minor))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.Patch))
	if v.Prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to, or after o.
// Pre-release ordering follows semver precedence rules; build metadata is ignored.
func (v Version) Compare(o Version) int {
	if c := cmpInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Patch, o.Patch); c != 0 {
		return c
	}

	switch {
	case v.Prerelease == o.Prerelease:
		return 0
	case v.Prerelease == "":
		return 1
	case o.Prerelease == "":
		return -1
	default:
		return modsemver.Compare("v0.0.0-"+v.Prerelease, "v0.0.0-"+o.Prerelease)
	}
}

// Equal reports whether v and o have the same precedence.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// IsPrerelease reports whether v carries a pre-release tag.
func (v Version) IsPrerelease() bool {
	return v.Prerelease != ""
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Sort orders versions ascending in place.
func Sort(vs []Version) {
	slices.SortFunc(vs, Version.Compare)
}

// SortDescending orders versions newest first in place.
func SortDescending(vs []Version) {
	slices.SortFunc(vs, func(a, b Version) int { return b.Compare(a) })
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
