package household

// ModeKind identifies the family of a mode for the chain walks. Chain
// feasibility only needs to know which family a trip's mode belongs to.
type ModeKind int

const (
	KindOther ModeKind = iota
	KindAuto
	KindTransit
	KindWalk
	KindBike
	KindTaxi
	KindPassenger
	KindRideShare
	KindSchoolBus
	KindGoAccess
	KindGoEgress
	KindGoNonDrive
	KindTransitAccess
	KindTransitEgress
)

var kindNames = []string{
	"other", "auto", "transit", "walk", "bike", "taxi", "passenger", "rideshare",
	"schoolbus", "go_access", "go_egress", "go_nondrive", "transit_access", "transit_egress",
}

func (k ModeKind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "other"
	}
	return kindNames[k]
}

// ModeTag is the view of an assigned mode that chain walks rely on.
type ModeTag interface {
	Name() string
	Kind() ModeKind
	// RequiresVehicle returns the household vehicle type the mode consumes,
	// or nil when it uses none.
	RequiresVehicle() *VehicleType
	NonPersonalVehicle() bool
}

// UsesVehicle reports whether tag consumes a household vehicle of type t.
func UsesVehicle(tag ModeTag, t *VehicleType) bool {
	if tag == nil || t == nil {
		return false
	}
	return tag.RequiresVehicle() == t
}
