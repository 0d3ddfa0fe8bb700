package clock

// Period is a time-of-day bucket used for peak adjustments and for selecting
// the skim matrix of a network.
type Period int

const (
	Offpeak Period = iota
	Morning
	Afternoon
)

// Period boundaries. Each bucket includes its lower bound and excludes its
// upper bound.
const (
	MorningStart   Time = 6 * Hour
	MorningEnd     Time = 9 * Hour
	AfternoonStart Time = 15*Hour + 30*Minute
	AfternoonEnd   Time = 18*Hour + 30*Minute
)

// Periods lists every period in a stable order.
var Periods = []Period{Morning, Afternoon, Offpeak}

// PeriodOf classifies t.
func PeriodOf(t Time) Period {
	switch {
	case t >= MorningStart && t < MorningEnd:
		return Morning
	case t >= AfternoonStart && t < AfternoonEnd:
		return Afternoon
	default:
		return Offpeak
	}
}

// IsPeak reports whether p is one of the two commuting peaks.
func (p Period) IsPeak() bool {
	return p == Morning || p == Afternoon
}

func (p Period) String() string {
	switch p {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	default:
		return "offpeak"
	}
}

// ParsePeriod is the inverse of Period.String.
func ParsePeriod(s string) (Period, bool) {
	switch s {
	case "morning":
		return Morning, true
	case "afternoon":
		return Afternoon, true
	case "offpeak":
		return Offpeak, true
	default:
		return Offpeak, false
	}
}
