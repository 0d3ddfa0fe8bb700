package household

import (
	"errors"
	"fmt"

	"github.com/travelmodel/modechoice/internal/clock"
)

// Errors returned when building a household from a document.
var (
	ErrUnknownZone        = errors.New("unknown zone")
	ErrUnknownVehicleType = errors.New("unknown vehicle type")
	ErrUnknownMode        = errors.New("unknown mode")
	ErrInvalidValue       = errors.New("invalid value")
	ErrTripOrder          = errors.New("trips are not in temporal order")
)

// FieldError ties a build error to the document field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Document is the serialised form of a household.
type Document struct {
	ID              int              `json:"id"`
	HomeZone        int              `json:"home_zone"`
	Vehicles        []string         `json:"vehicles,omitempty"`
	ExpansionFactor float64          `json:"expansion_factor,omitempty"`
	Persons         []PersonDocument `json:"persons"`
}

// PersonDocument is the serialised form of a person.
type PersonDocument struct {
	ID              int                 `json:"id"`
	Age             int                 `json:"age"`
	Female          bool                `json:"female,omitempty"`
	Licence         bool                `json:"licence,omitempty"`
	Youth           bool                `json:"youth,omitempty"`
	YoungAdult      bool                `json:"young_adult,omitempty"`
	Child           bool                `json:"child,omitempty"`
	Occupation      string              `json:"occupation,omitempty"`
	TransitPass     string              `json:"transit_pass,omitempty"`
	StudentStatus   string              `json:"student_status,omitempty"`
	ExpansionFactor float64             `json:"expansion_factor,omitempty"`
	TripChains      []TripChainDocument `json:"trip_chains,omitempty"`
}

// TripChainDocument is the serialised form of a trip chain.
type TripChainDocument struct {
	JointTrip bool           `json:"joint_trip,omitempty"`
	Trips     []TripDocument `json:"trips"`
}

// TripDocument is the serialised form of a trip. Mode is optional and only
// needed when checking a chain assignment.
type TripDocument struct {
	Origin            int        `json:"origin"`
	Destination       int        `json:"destination"`
	Purpose           string     `json:"purpose"`
	TripStartTime     clock.Time `json:"trip_start_time"`
	ActivityStartTime clock.Time `json:"activity_start_time"`
	Mode              string     `json:"mode,omitempty"`
}

// Resolver supplies the lookups needed to turn a Document into a Household.
type Resolver struct {
	Zones        *ZoneSystem
	VehicleTypes map[string]*VehicleType

	// Mode resolves trip mode names. It may be nil when documents carry no
	// mode assignments.
	Mode func(name string) (ModeTag, bool)
}

// Build resolves d into a linked Household.
func (d Document) Build(r Resolver) (*Household, error) {
	home, ok := r.Zones.Get(d.HomeZone)
	if !ok {
		return nil, &FieldError{Field: "home_zone", Err: fmt.Errorf("%w %d", ErrUnknownZone, d.HomeZone)}
	}

	h := &Household{
		ID:              d.ID,
		HomeZone:        home,
		ExpansionFactor: defaultWeight(d.ExpansionFactor),
	}

	for i, name := range d.Vehicles {
		vt, ok := r.VehicleTypes[name]
		if !ok {
			return nil, &FieldError{
				Field: fmt.Sprintf("vehicles[%d]", i),
				Err:   fmt.Errorf("%w %q", ErrUnknownVehicleType, name),
			}
		}
		h.Vehicles = append(h.Vehicles, Vehicle{Type: vt})
	}

	for pi, pd := range d.Persons {
		p, err := pd.build(r, fmt.Sprintf("persons[%d]", pi))
		if err != nil {
			return nil, err
		}
		h.AddPerson(p)
	}
	return h, nil
}

func (pd PersonDocument) build(r Resolver, path string) (*Person, error) {
	p := &Person{
		ID:              pd.ID,
		Age:             pd.Age,
		Female:          pd.Female,
		Licence:         pd.Licence,
		Youth:           pd.Youth,
		YoungAdult:      pd.YoungAdult,
		Child:           pd.Child,
		ExpansionFactor: defaultWeight(pd.ExpansionFactor),
	}

	if pd.Occupation != "" {
		occ, ok := ParseOccupation(pd.Occupation)
		if !ok {
			return nil, &FieldError{Field: path + ".occupation", Err: fmt.Errorf("%w %q", ErrInvalidValue, pd.Occupation)}
		}
		p.Occupation = occ
	}
	if pd.TransitPass != "" {
		pass, ok := ParseTransitPass(pd.TransitPass)
		if !ok {
			return nil, &FieldError{Field: path + ".transit_pass", Err: fmt.Errorf("%w %q", ErrInvalidValue, pd.TransitPass)}
		}
		p.TransitPass = pass
	}
	if pd.StudentStatus != "" {
		st, ok := ParseStudentStatus(pd.StudentStatus)
		if !ok {
			return nil, &FieldError{Field: path + ".student_status", Err: fmt.Errorf("%w %q", ErrInvalidValue, pd.StudentStatus)}
		}
		p.StudentStatus = st
	}

	for ci, cd := range pd.TripChains {
		chain := &TripChain{JointTrip: cd.JointTrip}
		p.AddTripChain(chain)
		for ti, td := range cd.Trips {
			tripPath := fmt.Sprintf("%s.trip_chains[%d].trips[%d]", path, ci, ti)
			trip, err := td.build(r, tripPath)
			if err != nil {
				return nil, err
			}
			if n := len(chain.Trips); n > 0 && trip.TripStartTime < chain.Trips[n-1].TripStartTime {
				return nil, &FieldError{Field: tripPath + ".trip_start_time", Err: ErrTripOrder}
			}
			chain.Append(trip)
		}
	}
	return p, nil
}

func (td TripDocument) build(r Resolver, path string) (*Trip, error) {
	origin, ok := r.Zones.Get(td.Origin)
	if !ok {
		return nil, &FieldError{Field: path + ".origin", Err: fmt.Errorf("%w %d", ErrUnknownZone, td.Origin)}
	}
	dest, ok := r.Zones.Get(td.Destination)
	if !ok {
		return nil, &FieldError{Field: path + ".destination", Err: fmt.Errorf("%w %d", ErrUnknownZone, td.Destination)}
	}
	purpose, ok := ParseActivity(td.Purpose)
	if !ok {
		return nil, &FieldError{Field: path + ".purpose", Err: fmt.Errorf("%w %q", ErrInvalidValue, td.Purpose)}
	}

	trip := &Trip{
		Origin:            origin,
		Destination:       dest,
		Purpose:           purpose,
		TripStartTime:     td.TripStartTime,
		ActivityStartTime: td.ActivityStartTime,
	}

	if td.Mode != "" {
		if r.Mode == nil {
			return nil, &FieldError{Field: path + ".mode", Err: fmt.Errorf("%w %q", ErrUnknownMode, td.Mode)}
		}
		tag, ok := r.Mode(td.Mode)
		if !ok {
			return nil, &FieldError{Field: path + ".mode", Err: fmt.Errorf("%w %q", ErrUnknownMode, td.Mode)}
		}
		trip.Mode = tag
	}
	return trip, nil
}

func defaultWeight(w float64) float64 {
	if w <= 0 {
		return 1
	}
	return w
}
