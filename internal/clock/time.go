// Package clock provides the time-of-day value used by the mode evaluators.
//
// A Time is a count of milliseconds since midnight of the simulated day. The
// simulated day runs from StartOfDay (4:00) to EndOfDay (28:00), so values
// beyond 24 hours are valid and represent early morning of the next calendar
// day. The same type is used for both points in time and durations.
package clock

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Time is a point in, or a duration of, the simulated day in milliseconds.
type Time int64

// Common durations.
const (
	Millisecond Time = 1
	Second           = 1000 * Millisecond
	Minute           = 60 * Second
	Hour             = 60 * Minute
)

// Day boundaries.
const (
	Zero       Time = 0
	StartOfDay      = 4 * Hour
	EndOfDay        = 28 * Hour
)

// ErrInvalidTime is returned when a string cannot be parsed as a Time.
var ErrInvalidTime = errors.New("invalid time")

// New returns the time hours:minutes.
func New(hours, minutes int) Time {
	return Time(hours)*Hour + Time(minutes)*Minute
}

// FromMinutes converts a (possibly fractional) number of minutes to a Time.
func FromMinutes(minutes float64) Time {
	return Time(math.Round(minutes * float64(Minute)))
}

// FromHours converts a (possibly fractional) number of hours to a Time.
func FromHours(hours float64) Time {
	return Time(math.Round(hours * float64(Hour)))
}

// FromDuration converts a time.Duration to a Time, truncating to milliseconds.
func FromDuration(d time.Duration) Time {
	return Time(d.Milliseconds())
}

// FromHHMM decodes the packed H.MMSS float used by rail timetables,
// e.g. 7.30 is 7:30 and 16.0515 is 16:05:15.
func FromHHMM(v float64) Time {
	hours := math.Floor(v)
	rest := math.Round((v - hours) * 10000)
	minutes := math.Floor(rest / 100)
	seconds := rest - minutes*100
	return Time(hours)*Hour + Time(minutes)*Minute + Time(seconds)*Second
}

// Minutes returns t as fractional minutes.
func (t Time) Minutes() float64 {
	return float64(t) / float64(Minute)
}

// Hours returns t as fractional hours.
func (t Time) Hours() float64 {
	return float64(t) / float64(Hour)
}

// HHMM packs t as H + MM/100 + SS/10000, the encoding rail timetables use
// for service windows.
func (t Time) HHMM() float64 {
	h, m, s := t.Clock()
	return float64(h) + float64(m)*0.01 + float64(s)*0.0001
}

// Clock returns the hour, minute and second components of t. Hours are not
// wrapped at 24.
func (t Time) Clock() (hours, minutes, seconds int) {
	total := int64(t / Second)
	if total < 0 {
		total = -total
	}
	return int(total / 3600), int(total / 60 % 60), int(total % 60)
}

// Duration converts t to a time.Duration.
func (t Time) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// Add returns t+d.
func (t Time) Add(d Time) Time { return t + d }

// Sub returns t-u.
func (t Time) Sub(u Time) Time { return t - u }

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool { return t < u }

// After reports whether t is strictly later than u.
func (t Time) After(u Time) bool { return t > u }

// IsZero reports whether t is exactly zero.
func (t Time) IsZero() bool { return t == Zero }

// Positive reports whether t is strictly greater than zero.
func (t Time) Positive() bool { return t > Zero }

// String formats t as H:MM, or H:MM:SS when seconds are present.
func (t Time) String() string {
	h, m, s := t.Clock()
	sign := ""
	if t < 0 {
		sign = "-"
	}
	if s != 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%d:%02d", sign, h, m)
}

// MarshalText implements encoding.TextMarshaler.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse reads a Time from a string. Accepted forms:
//
//	"7:30", "7:30:15"          clock notation
//	"7:30 AM", "4:00 PM"       twelve hour clock
//	"15 minutes", "2 hours"    unit notation
//	"1h30m", "90m", "45s"      compact unit notation
func Parse(s string) (Time, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalidTime)
	}

	lower := strings.ToLower(in)
	meridiem := ""
	switch {
	case strings.HasSuffix(lower, "am"):
		meridiem = "am"
	case strings.HasSuffix(lower, "pm"):
		meridiem = "pm"
	}
	if meridiem != "" {
		lower = strings.TrimSpace(strings.TrimSuffix(lower, meridiem))
	}

	var (
		t   Time
		err error
	)
	if strings.Contains(lower, ":") {
		t, err = parseClock(lower)
	} else {
		t, err = parseUnits(lower)
	}
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %s", ErrInvalidTime, s, err.Error())
	}

	if meridiem != "" {
		h, _, _ := t.Clock()
		if h < 1 || h > 12 {
			return Zero, fmt.Errorf("%w: %q: hour out of range for %s", ErrInvalidTime, s, strings.ToUpper(meridiem))
		}
		switch {
		case meridiem == "am" && h == 12:
			t -= 12 * Hour
		case meridiem == "pm" && h != 12:
			t += 12 * Hour
		}
	}
	return t, nil
}

func parseClock(s string) (Time, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Zero, errors.New("too many ':' separators")
	}
	units := []Time{Hour, Minute, Second}
	var t Time
	for i, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Zero, fmt.Errorf("expected a number but found %q", p)
		}
		if i > 0 && n >= 60 {
			return Zero, fmt.Errorf("component %q out of range", p)
		}
		t += Time(n) * units[i]
	}
	return t, nil
}

func parseUnits(s string) (Time, error) {
	var (
		t      Time
		number strings.Builder
		seen   bool
	)
	flush := func(unit string) error {
		if number.Len() == 0 {
			return fmt.Errorf("unit %q without a number", unit)
		}
		v, err := strconv.ParseFloat(number.String(), 64)
		if err != nil {
			return fmt.Errorf("expected a number but found %q", number.String())
		}
		number.Reset()
		switch unit {
		case "h", "hr", "hrs", "hour", "hours":
			t += FromHours(v)
		case "m", "min", "mins", "minute", "minutes":
			t += FromMinutes(v)
		case "s", "sec", "secs", "second", "seconds":
			t += Time(math.Round(v * float64(Second)))
		default:
			return fmt.Errorf("unknown unit %q", unit)
		}
		seen = true
		return nil
	}

	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			number.WriteRune(r)
			i++
		case unicode.IsLetter(r):
			j := i
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			if err := flush(string(runes[i:j])); err != nil {
				return Zero, err
			}
			i = j
		default:
			return Zero, fmt.Errorf("unexpected character %q", r)
		}
	}

	if number.Len() > 0 {
		// A bare number is read as hours, matching "7" meaning 7:00.
		if seen {
			return Zero, errors.New("trailing number without a unit")
		}
		if err := flush("h"); err != nil {
			return Zero, err
		}
	}
	if !seen {
		return Zero, errors.New("no time components")
	}
	return t, nil
}

// Intersection returns the overlap of the closed windows [start1, end1] and
// [start2, end2]. ok is false when the windows are disjoint.
func Intersection(start1, end1, start2, end2 Time) (start, end Time, ok bool) {
	if end1 < start2 || end2 < start1 {
		return Zero, Zero, false
	}
	return max(start1, start2), min(end1, end2), true
}

// Min returns the smaller of a and b.
func Min(a, b Time) Time { return min(a, b) }

// Max returns the larger of a and b.
func Max(a, b Time) Time { return max(a, b) }
