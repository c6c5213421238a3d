package semver

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// bound is one end of an interval. A nil version means the interval is unbounded on that side.
type bound struct {
	v         *Version
	inclusive bool
}

// interval is a contiguous set of versions between lo and hi.
type interval struct {
	lo bound
	hi bound
}

// Range is a set of versions expressed as a union of disjoint intervals.
// The zero value is the empty range; use Any for the unconstrained range.
type Range struct {
	set []interval
}

// Any returns the range matching every version.
func Any() Range {
	return Range{set: []interval{{}}}
}

// Exactly returns the range matching only v.
func Exactly(v Version) Range {
	return Range{set: []interval{{
		lo: bound{v: &v, inclusive: true},
		hi: bound{v: &v, inclusive: true},
	}}}
}

// ParseRange parses a range expression.
//
// Supported forms: "*", "1.2.3", "=1.2.3", "^1.2", "~1.2", "@1.2", ">=1.0 <2.0", and disjunctions
// joined with "||". Space separated comparators are intersected. A bare partial version such as
// "1.2" or "@1.2" matches every version sharing the written components.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Any(), nil
	}

	var out Range
	for _, alt := range strings.Split(s, "||") {
		fields := strings.Fields(alt)
		if len(fields) == 0 {
			return Range{}, zerr.With(ErrInvalidRange, "range", s)
		}

		r := Any()
		for _, f := range fields {
			c, err := parseComparator(f)
			if err != nil {
				return Range{}, zerr.With(err, "range", s)
			}
			r = r.Intersect(c)
		}
		out.set = append(out.set, r.set...)
	}

	return out.normalize(), nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseComparator(f string) (Range, error) {
	if f == "*" {
		return Any(), nil
	}

	op, rest := splitOperator(f)
	v, components, err := parsePartial(rest)
	if err != nil {
		return Range{}, zerr.With(ErrInvalidRange, "comparator", f)
	}

	switch op {
	case ">=":
		return between(bound{v: &v, inclusive: true}, bound{}), nil
	case ">":
		return between(bound{v: &v}, bound{}), nil
	case "<=":
		return between(bound{}, bound{v: &v, inclusive: true}), nil
	case "<":
		if v.Prerelease == "" {
			v = ceiling(v.Major, v.Minor, v.Patch)
		}
		return between(bound{}, bound{v: &v}), nil
	case "^":
		return between(bound{v: &v, inclusive: true}, bound{v: ptr(caretCeiling(v, components))}), nil
	case "~":
		return between(bound{v: &v, inclusive: true}, bound{v: ptr(tildeCeiling(v, components))}), nil
	case "=", "@", "":
		if components == 3 || v.Prerelease != "" {
			return Exactly(v), nil
		}
		return between(bound{v: &v, inclusive: true}, bound{v: ptr(prefixCeiling(v, components))}), nil
	default:
		return Range{}, zerr.With(ErrInvalidRange, "comparator", f)
	}
}

func splitOperator(f string) (op, rest string) {
	for _, candidate := range []string{">=", "<=", ">", "<", "^", "~", "=", "@"} {
		if strings.HasPrefix(f, candidate) {
			return candidate, f[len(candidate):]
		}
	}
	return "", f
}

// ceiling returns the lowest pre-release of the given version. Every exclusive upper bound written
// without a pre-release uses it, so "<2.0" and "^1" both exclude 2.0.0-rc.1.
func ceiling(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch, Prerelease: "0"}
}

// caretCeiling allows changes that do not modify the left-most non-zero component.
// ^1.2.3 := <2.0.0, ^0.2.3 := <0.3.0, ^0.0.3 := <0.0.4.
func caretCeiling(v Version, components int) Version {
	switch {
	case v.Major != 0 || components == 1:
		return ceiling(v.Major+1, 0, 0)
	case v.Minor != 0 || components == 2:
		return ceiling(0, v.Minor+1, 0)
	default:
		return ceiling(0, 0, v.Patch+1)
	}
}

// tildeCeiling allows patch-level changes when a minor component is written.
func tildeCeiling(v Version, components int) Version {
	if components == 1 {
		return ceiling(v.Major+1, 0, 0)
	}
	return ceiling(v.Major, v.Minor+1, 0)
}

func prefixCeiling(v Version, components int) Version {
	if components == 1 {
		return ceiling(v.Major+1, 0, 0)
	}
	return ceiling(v.Major, v.Minor+1, 0)
}

func between(lo, hi bound) Range {
	return Range{set: []interval{{lo: lo, hi: hi}}}
}

func ptr(v Version) *Version {
	return &v
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v Version) bool {
	for _, iv := range r.set {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no version can satisfy the range.
func (r Range) IsEmpty() bool {
	return len(r.set) == 0
}

// Intersect returns the versions contained in both r and o.
func (r Range) Intersect(o Range) Range {
	var out Range
	for _, a := range r.set {
		for _, b := range o.set {
			iv := interval{lo: maxLower(a.lo, b.lo), hi: minUpper(a.hi, b.hi)}
			if !iv.empty() {
				out.set = append(out.set, iv)
			}
		}
	}
	return out.normalize()
}

// Union returns the versions contained in either r or o.
func (r Range) Union(o Range) Range {
	out := Range{set: append(slices.Clone(r.set), o.set...)}
	return out.normalize()
}

// Equal reports whether r and o describe the same set of versions.
func (r Range) Equal(o Range) bool {
	return slices.EqualFunc(r.set, o.set, func(a, b interval) bool {
		return cmpLower(a.lo, b.lo) == 0 && cmpUpper(a.hi, b.hi) == 0
	})
}

// Highest returns the greatest version in vs that the range contains.
func (r Range) Highest(vs []Version) (Version, bool) {
	var best Version
	found := false
	for _, v := range vs {
		if r.Contains(v) && (!found || v.Compare(best) > 0) {
			best = v
			found = true
		}
	}
	return best, found
}

// String renders the range in a canonical comparator form.
func (r Range) String() string {
	if r.IsEmpty() {
		return "<none>"
	}

	parts := make([]string, 0, len(r.set))
	for _, iv := range r.set {
		parts = append(parts, iv.String())
	}
	return strings.Join(parts, " || ")
}

// MarshalText implements encoding.TextMarshaler.
func (r Range) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Range) UnmarshalText(text []byte) error {
	parsed, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// normalize sorts intervals by lower bound and merges overlapping ones so that
// equal sets always render identically.
func (r Range) normalize() Range {
	if len(r.set) <= 1 {
		return r
	}

	set := slices.Clone(r.set)
	slices.SortFunc(set, func(a, b interval) int { return cmpLower(a.lo, b.lo) })

	merged := []interval{set[0]}
	for _, iv := range set[1:] {
		last := &merged[len(merged)-1]
		if last.overlapsOrTouches(iv) {
			last.hi = maxUpper(last.hi, iv.hi)
			continue
		}
		merged = append(merged, iv)
	}
	return Range{set: merged}
}

func (iv interval) contains(v Version) bool {
	if iv.lo.v != nil {
		c := v.Compare(*iv.lo.v)
		if c < 0 || (c == 0 && !iv.lo.inclusive) {
			return false
		}
	}
	if iv.hi.v != nil {
		c := v.Compare(*iv.hi.v)
		if c > 0 || (c == 0 && !iv.hi.inclusive) {
			return false
		}
	}
	return true
}

func (iv interval) empty() bool {
	if iv.lo.v == nil || iv.hi.v == nil {
		return false
	}
	c := iv.lo.v.Compare(*iv.hi.v)
	return c > 0 || (c == 0 && !(iv.lo.inclusive && iv.hi.inclusive))
}

func (iv interval) overlapsOrTouches(next interval) bool {
	if iv.hi.v == nil || next.lo.v == nil {
		return true
	}
	c := iv.hi.v.Compare(*next.lo.v)
	return c > 0 || (c == 0 && (iv.hi.inclusive || next.lo.inclusive))
}

func (iv interval) String() string {
	if iv.lo.v == nil && iv.hi.v == nil {
		return "*"
	}
	if iv.lo.v != nil && iv.hi.v != nil && iv.lo.inclusive && iv.hi.inclusive && iv.lo.v.Equal(*iv.hi.v) {
		return "=" + iv.lo.v.String()
	}

	var parts []string
	if iv.lo.v != nil {
		op := ">"
		if iv.lo.inclusive {
			op = ">="
		}
		parts = append(parts, op+iv.lo.v.String())
	}
	if iv.hi.v != nil {
		op := "<"
		if iv.hi.inclusive {
			op = "<="
		}
		hi := *iv.hi.v
		if !iv.hi.inclusive && hi.Prerelease == "0" {
			hi.Prerelease = ""
		}
		parts = append(parts, op+hi.String())
	}
	return strings.Join(parts, " ")
}

// cmpLower orders lower bounds; an unbounded lower bound sorts first.
func cmpLower(a, b bound) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return -1
	case b.v == nil:
		return 1
	}
	if c := a.v.Compare(*b.v); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return -1
	default:
		return 1
	}
}

// cmpUpper orders upper bounds; an unbounded upper bound sorts last.
func cmpUpper(a, b bound) int {
	switch {
	case a.v == nil && b.v == nil:
		return 0
	case a.v == nil:
		return 1
	case b.v == nil:
		return -1
	}
	if c := a.v.Compare(*b.v); c != 0 {
		return c
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return 1
	default:
		return -1
	}
}

func maxLower(a, b bound) bound {
	if cmpLower(a, b) >= 0 {
		return a
	}
	return b
}

func minUpper(a, b bound) bound {
	if cmpUpper(a, b) <= 0 {
		return a
	}
	return b
}

func maxUpper(a, b bound) bound {
	if cmpUpper(a, b) >= 0 {
		return a
	}
	return b
}
