package household

// Station is an optional station zone number recorded on a trip.
type Station struct {
	Zone  int
	Valid bool
}

// StationAt returns a valid station for zone.
func StationAt(zone int) Station {
	return Station{Zone: zone, Valid: true}
}

// NoStation is the empty station.
var NoStation = Station{}

// Scratch is the per-trip side channel filled by Feasible and read by
// CalculateV, and by later trips of the same chain. It belongs to the
// goroutine evaluating the trip's household.
type Scratch struct {
	// FeasibleGoStations are the drive access rail stations that passed the
	// feasibility filter, in closest-first order.
	FeasibleGoStations []int

	// FeasibleNonDriveGoStations are the transit access rail stations that
	// passed the feasibility filter.
	FeasibleNonDriveGoStations []int

	// FeasibleSubwayStations are the park and ride subway stations that
	// passed the feasibility filter.
	FeasibleSubwayStations []int

	GoAccessStation     Station
	GoEgressStation     Station
	SubwayAccessStation Station
	SubwayEgressStation Station

	// WalkAccessTrip is the synthetic walking leg used when a rail egress
	// trip reaches its station on foot.
	WalkAccessTrip *Trip

	// The Evaluated flags record which producing steps ran in the current
	// pass.
	GoAccessEvaluated     bool
	GoEgressEvaluated     bool
	NonDriveGoEvaluated   bool
	SubwayAccessEvaluated bool
	SubwayEgressEvaluated bool
}

// Reset clears everything recorded in the previous pass.
func (s *Scratch) Reset() {
	*s = Scratch{}
}
