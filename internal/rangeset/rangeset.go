// Package rangeset parses and queries sets of inclusive integer ranges such
// as "1609-2649,3000,4000+".
package rangeset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidRangeSet is returned when a range set string cannot be parsed.
var ErrInvalidRangeSet = errors.New("invalid range set")

// Range is an inclusive integer interval.
type Range struct {
	Start int
	Stop  int
}

// Contains reports whether n lies in r.
func (r Range) Contains(n int) bool {
	return n >= r.Start && n <= r.Stop
}

func (r Range) String() string {
	switch {
	case r.Stop == math.MaxInt:
		return strconv.Itoa(r.Start) + "+"
	case r.Start == r.Stop:
		return strconv.Itoa(r.Start)
	default:
		return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.Stop)
	}
}

// Set is an ordered list of ranges. The zero value is an empty set.
type Set struct {
	ranges []Range
}

// New builds a set from explicit ranges.
func New(ranges ...Range) Set {
	return Set{ranges: append([]Range(nil), ranges...)}
}

// Parse reads a comma separated list of "n", "a-b" and "a+" terms.
// Whitespace is ignored and an empty string yields an empty set.
func Parse(s string) (Set, error) {
	var out Set
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}

	for _, term := range strings.Split(s, ",") {
		term = strings.Join(strings.Fields(term), "")
		if term == "" {
			return Set{}, fmt.Errorf("%w: empty term in %q", ErrInvalidRangeSet, s)
		}

		var r Range
		switch {
		case strings.HasSuffix(term, "+"):
			start, err := strconv.Atoi(strings.TrimSuffix(term, "+"))
			if err != nil {
				return Set{}, fmt.Errorf("%w: %q", ErrInvalidRangeSet, term)
			}
			r = Range{Start: start, Stop: math.MaxInt}
		case strings.Contains(term, "-"):
			lo, hi, _ := strings.Cut(term, "-")
			start, err := strconv.Atoi(lo)
			if err != nil {
				return Set{}, fmt.Errorf("%w: no number before range in %q", ErrInvalidRangeSet, term)
			}
			stop, err := strconv.Atoi(hi)
			if err != nil {
				return Set{}, fmt.Errorf("%w: %q", ErrInvalidRangeSet, term)
			}
			if stop < start {
				return Set{}, fmt.Errorf("%w: descending range %q", ErrInvalidRangeSet, term)
			}
			r = Range{Start: start, Stop: stop}
		default:
			n, err := strconv.Atoi(term)
			if err != nil {
				return Set{}, fmt.Errorf("%w: %q", ErrInvalidRangeSet, term)
			}
			r = Range{Start: n, Stop: n}
		}
		out.ranges = append(out.ranges, r)
	}
	return out, nil
}

// MustParse is like Parse but panics on error. Intended for defaults.
func MustParse(s string) Set {
	set, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return set
}

// Contains reports whether any range of the set contains n.
func (s Set) Contains(n int) bool {
	for _, r := range s.ranges {
		if r.Contains(n) {
			return true
		}
	}
	return false
}

// Len returns the number of ranges.
func (s Set) Len() int { return len(s.ranges) }

// Ranges returns a copy of the ranges.
func (s Set) Ranges() []Range {
	return append([]Range(nil), s.ranges...)
}

func (s Set) String() string {
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Set) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
