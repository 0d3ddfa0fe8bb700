package household

import (
	"github.com/travelmodel/modechoice/internal/clock"
)

// Activity is the purpose of a trip, i.e. the activity at its destination.
type Activity int

const (
	Home Activity = iota
	PrimaryWork
	SecondaryWork
	WorkBasedBusiness
	School
	Market
	JointMarket
	IndividualOther
	JointOther
	ReturnFromWork
	Intermediate
)

var activityNames = []string{
	"home", "primary_work", "secondary_work", "work_based_business", "school",
	"market", "joint_market", "individual_other", "joint_other", "return_from_work",
	"intermediate",
}

func (a Activity) String() string {
	if int(a) < 0 || int(a) >= len(activityNames) {
		return "unknown"
	}
	return activityNames[a]
}

// ParseActivity is the inverse of Activity.String.
func ParseActivity(s string) (Activity, bool) {
	for i, name := range activityNames {
		if name == s {
			return Activity(i), true
		}
	}
	return Home, false
}

// IsShopping reports whether a is an individual or joint shopping activity.
func (a Activity) IsShopping() bool {
	return a == Market || a == JointMarket
}

// IsOther reports whether a is an individual or joint "other" activity.
func (a Activity) IsOther() bool {
	return a == IndividualOther || a == JointOther
}

// Occupation categories.
type Occupation int

const (
	NotEmployed Occupation = iota
	Office
	Retail
	Manufacturing
	Professional
)

var occupationNames = []string{"not_employed", "office", "retail", "manufacturing", "professional"}

func (o Occupation) String() string {
	if int(o) < 0 || int(o) >= len(occupationNames) {
		return "unknown"
	}
	return occupationNames[o]
}

// ParseOccupation is the inverse of Occupation.String.
func ParseOccupation(s string) (Occupation, bool) {
	for i, name := range occupationNames {
		if name == s {
			return Occupation(i), true
		}
	}
	return NotEmployed, false
}

// TransitPass is the kind of transit pass a person holds.
type TransitPass int

const (
	NoPass TransitPass = iota
	MetroPass
	GoPass
	CombinationPass
)

var passNames = []string{"none", "metro", "go", "combination"}

func (p TransitPass) String() string {
	if int(p) < 0 || int(p) >= len(passNames) {
		return "unknown"
	}
	return passNames[p]
}

// ParseTransitPass is the inverse of TransitPass.String.
func ParseTransitPass(s string) (TransitPass, bool) {
	for i, name := range passNames {
		if name == s {
			return TransitPass(i), true
		}
	}
	return NoPass, false
}

// CoversLocalTransit reports whether the pass pays local transit fares.
func (p TransitPass) CoversLocalTransit() bool {
	return p == MetroPass || p == CombinationPass
}

// StudentStatus of a person.
type StudentStatus int

const (
	NotStudent StudentStatus = iota
	FullTimeStudent
	PartTimeStudent
)

var studentNames = []string{"none", "full_time", "part_time"}

func (s StudentStatus) String() string {
	if int(s) < 0 || int(s) >= len(studentNames) {
		return "unknown"
	}
	return studentNames[s]
}

// ParseStudentStatus is the inverse of StudentStatus.String.
func ParseStudentStatus(s string) (StudentStatus, bool) {
	for i, name := range studentNames {
		if name == s {
			return StudentStatus(i), true
		}
	}
	return NotStudent, false
}

// VehicleType tags a class of vehicle. Types are compared by pointer.
type VehicleType struct {
	Name string
}

// Vehicle is a vehicle owned by a household.
type Vehicle struct {
	Type *VehicleType
}

// Household owns persons and vehicles. Vehicle availability is shared by all
// of its persons within an evaluation pass.
type Household struct {
	ID              int
	HomeZone        *Zone
	Vehicles        []Vehicle
	Persons         []*Person
	ExpansionFactor float64
}

// HasVehicleType reports whether the household owns at least one vehicle of t.
func (h *Household) HasVehicleType(t *VehicleType) bool {
	for _, v := range h.Vehicles {
		if v.Type == t {
			return true
		}
	}
	return false
}

// HasVehicles reports whether the household owns any vehicle.
func (h *Household) HasVehicles() bool {
	return len(h.Vehicles) > 0
}

// AddPerson appends p and links it back to h.
func (h *Household) AddPerson(p *Person) {
	p.Household = h
	h.Persons = append(h.Persons, p)
}

// Person is a household member.
type Person struct {
	ID              int
	Household       *Household
	Age             int
	Female          bool
	Licence         bool
	Youth           bool
	YoungAdult      bool
	Child           bool
	Occupation      Occupation
	TransitPass     TransitPass
	StudentStatus   StudentStatus
	ExpansionFactor float64
	TripChains      []*TripChain
}

// IsStudent reports whether the person attends school full or part time.
func (p *Person) IsStudent() bool {
	return p.StudentStatus != NotStudent
}

// AddTripChain appends c and links it back to p.
func (p *Person) AddTripChain(c *TripChain) {
	c.Person = p
	p.TripChains = append(p.TripChains, c)
}

// TripChain is an ordered, temporally increasing sequence of trips made by
// one person.
type TripChain struct {
	Person    *Person
	Trips     []*Trip
	JointTrip bool
}

// Append adds t to the end of the chain.
func (c *TripChain) Append(t *Trip) {
	t.Chain = c
	t.Number = len(c.Trips)
	c.Trips = append(c.Trips, t)
}

// Previous returns the trip before t in the chain, or nil.
func (c *TripChain) Previous(t *Trip) *Trip {
	before := c.Before(t)
	if len(before) == 0 {
		return nil
	}
	return before[len(before)-1]
}

// Before returns the trips that precede t in the chain.
func (c *TripChain) Before(t *Trip) []*Trip {
	for i, other := range c.Trips {
		if other == t {
			return c.Trips[:i]
		}
	}
	return nil
}

// Trip is one origin to destination movement.
type Trip struct {
	Number            int
	Origin            *Zone
	Destination       *Zone
	Purpose           Activity
	TripStartTime     clock.Time
	ActivityStartTime clock.Time
	Chain             *TripChain

	// Mode is the mode assigned to this trip by the chooser, if any.
	Mode ModeTag

	// Scratch carries values between the feasibility and utility phases of
	// one pass.
	Scratch Scratch
}

// Person returns the person making the trip.
func (t *Trip) Person() *Person {
	return t.Chain.Person
}

// Household returns the household of the person making the trip.
func (t *Trip) Household() *Household {
	return t.Chain.Person.Household
}

// Distance returns the Manhattan distance of the trip.
func (t *Trip) Distance() float64 {
	return Distance(t.Origin, t.Destination)
}

// Intrazonal reports whether the trip stays within a single zone.
func (t *Trip) Intrazonal() bool {
	return Intrazonal(t.Origin, t.Destination)
}
