package mode

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/rangeset"
)

// Code is a one character mode code. It is written as a one character
// string in JSON.
type Code rune

func (c Code) MarshalText() ([]byte, error) {
	return []byte(string(rune(c))), nil
}

func (c *Code) UnmarshalText(b []byte) error {
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError || size != len(b) {
		return fmt.Errorf("mode code %q must be a single character", string(b))
	}
	*c = Code(r)
	return nil
}

// Common holds the settings every mode has.
type Common struct {
	Name            string `json:"name"`
	ObservedMode    Code   `json:"observed_mode"`
	OutputSignature Code   `json:"output_signature"`

	// CurrentlyFeasible gates FeasibleOD. Zero or below disables the mode
	// for zone pair queries.
	CurrentlyFeasible float64 `json:"currently_feasible"`
}

func common(name string, observed, output rune) Common {
	return Common{
		Name:              name,
		ObservedMode:      Code(observed),
		OutputSignature:   Code(output),
		CurrentlyFeasible: 1,
	}
}

// AutoConfig configures the private auto driver mode.
type AutoConfig struct {
	Common

	NetworkName string `json:"network_name"`
	// VehicleTypeName is the vehicle consumed. Blank uses the household car.
	VehicleTypeName string `json:"vehicle_type_name"`

	Constant   float64 `json:"constant"`
	TravelTime float64 `json:"travel_time"`
	TravelCost float64 `json:"travel_cost"`
	Parking    float64 `json:"parking"`

	ShopPurpose  float64 `json:"shop_purpose"`
	OtherPurpose float64 `json:"other_purpose"`

	UseIntrazonalRegression bool    `json:"use_intrazonal_regression"`
	IntrazonalConstant      float64 `json:"intrazonal_constant"`
	IntrazonalDistance      float64 `json:"intrazonal_distance"`
}

// TransitConfig configures walk access transit.
type TransitConfig struct {
	Common

	NetworkName string `json:"network_name"`
	// MinAgeAlone is the youngest age allowed to ride without a joint trip.
	MinAgeAlone int `json:"min_age_alone"`

	Constant      float64 `json:"constant"`
	InVehicleTime float64 `json:"in_vehicle_time"`
	WaitTime      float64 `json:"wait_time"`
	WalkTime      float64 `json:"walk_time"`
	Fare          float64 `json:"fare"`
	// PassCoversFare waives the fare for riders whose pass covers local
	// transit. Off by default.
	PassCoversFare bool `json:"pass_covers_fare,omitempty"`

	OccSales   float64 `json:"occ_sales"`
	OccGeneral float64 `json:"occ_general"`
	Child      float64 `json:"child"`

	ShopPurpose  float64 `json:"shop_purpose"`
	OtherPurpose float64 `json:"other_purpose"`

	UseIntrazonalRegression bool    `json:"use_intrazonal_regression"`
	IntrazonalConstant      float64 `json:"intrazonal_constant"`
	IntrazonalDistance      float64 `json:"intrazonal_distance"`
}

// WalkingConfig configures walking.
type WalkingConfig struct {
	Common

	// Speed is in km/h.
	Speed float64 `json:"speed"`
	// MaxWalkDistance is in metres.
	MaxWalkDistance float64 `json:"max_walk_distance"`

	Constant     float64 `json:"constant"`
	Licence      float64 `json:"licence"`
	TravelTime   float64 `json:"travel_time"`
	Peak         float64 `json:"peak"`
	Youth        float64 `json:"youth"`
	YoungAdult   float64 `json:"young_adult"`
	Intrazonal   float64 `json:"intrazonal"`
	NoVehicle    float64 `json:"no_vehicle"`
	ShopPurpose  float64 `json:"shop_purpose"`
	OtherPurpose float64 `json:"other_purpose"`
}

// BikeConfig configures cycling.
type BikeConfig struct {
	Common

	// Speed is in km/h.
	Speed float64 `json:"speed"`
	// MaxTravelDistance is in metres.
	MaxTravelDistance float64 `json:"max_travel_distance"`
	// VehicleTypeName is optional. When set the household must own the type.
	VehicleTypeName string `json:"vehicle_type_name"`

	Constant   float64 `json:"constant"`
	TravelTime float64 `json:"travel_time"`
	Youth      float64 `json:"youth"`
	YoungAdult float64 `json:"young_adult"`
	Intrazonal float64 `json:"intrazonal"`
}

// TaxiConfig configures taxi trips.
type TaxiConfig struct {
	Common

	NetworkName string `json:"network_name"`

	// Taxis serve trips with both ends in [MinZone, MaxZone].
	MinZone int `json:"min_zone"`
	MaxZone int `json:"max_zone"`

	InitialFare   float64 `json:"initial_fare"`
	PerKFare      float64 `json:"per_k_fare"`
	PerMinuteFare float64 `json:"per_minute_fare"`
	// Tip multiplies the metered fare.
	Tip float64 `json:"tip"`

	// TerminalZones are airports and stations.
	TerminalZones rangeset.Set `json:"terminal_zones"`

	Constant     float64 `json:"constant"`
	Time         float64 `json:"time"`
	FareCost     float64 `json:"fare_cost"`
	OffPeakTrip  float64 `json:"off_peak_trip"`
	Terminal     float64 `json:"terminal"`
	ShopPurpose  float64 `json:"shop_purpose"`
	OtherPurpose float64 `json:"other_purpose"`

	UseIntrazonalRegression bool    `json:"use_intrazonal_regression"`
	IntrazonalConstant      float64 `json:"intrazonal_constant"`
	IntrazonalDistance      float64 `json:"intrazonal_distance"`
}

// RideShareConfig configures household members sharing a car on a joint
// trip.
type RideShareConfig struct {
	Common

	NetworkName string `json:"network_name"`

	Constant     float64 `json:"constant"`
	TravelTime   float64 `json:"travel_time"`
	TravelCost   float64 `json:"travel_cost"`
	Parking      float64 `json:"parking"`
	ShopPurpose  float64 `json:"shop_purpose"`
	OtherPurpose float64 `json:"other_purpose"`
}

// SchoolBusConfig configures school buses.
type SchoolBusConfig struct {
	Common

	NetworkName    string       `json:"network_name"`
	AvailableZones rangeset.Set `json:"available_zones"`

	Constant            float64 `json:"constant"`
	Licence             float64 `json:"licence"`
	YouthPassenger      float64 `json:"youth_passenger"`
	YouthWalk           float64 `json:"youth_walk"`
	YoungAdultPassenger float64 `json:"young_adult_passenger"`
	YoungAdultWalk      float64 `json:"young_adult_walk"`
	SchoolPurpose       float64 `json:"school_purpose"`
	// Distance weights the auto travel time in minutes.
	Distance float64 `json:"distance"`
	Age      float64 `json:"age"`
}

// PassengerConfig configures riding as the passenger of a household driver.
type PassengerConfig struct {
	Common

	NetworkName string `json:"network_name"`

	// MaxDriverTime is how far the driver may deviate from their schedule.
	MaxDriverTime clock.Time `json:"max_driver_time"`
	// MaxPassengerTime is how far the pickup may deviate from the passenger's
	// schedule.
	MaxPassengerTime clock.Time `json:"max_passenger_time"`

	Constant      float64 `json:"constant"`
	TravelTime    float64 `json:"travel_time"`
	TravelCost    float64 `json:"travel_cost"`
	ShopPurpose   float64 `json:"shop_purpose"`
	OtherPurpose  float64 `json:"other_purpose"`
	SchoolPurpose float64 `json:"school_purpose"`
	Female        float64 `json:"female"`
	Licence       float64 `json:"licence"`
	RoundTrip     float64 `json:"round_trip"`
	Connecting    float64 `json:"connecting"`
}

// GoConfig configures the commuter rail modes.
type GoConfig struct {
	Common

	NetworkName string `json:"network_name"`

	Constant    float64 `json:"constant"`
	AutoTime    float64 `json:"auto_time"`
	AutoCost    float64 `json:"auto_cost"`
	RailTime    float64 `json:"rail_time"`
	TransitTime float64 `json:"transit_time"`
	WalkTime    float64 `json:"walk_time"`
	WaitTime    float64 `json:"wait_time"`
	FareCost    float64 `json:"fare_cost"`
	Peak        float64 `json:"peak"`
	OccSales    float64 `json:"occ_sales"`
	OccGeneral  float64 `json:"occ_general"`

	// PassCoversLocalFare waives the local transit fares of access and
	// egress legs for riders whose pass covers them. Rail fares are always
	// paid. Off by default.
	PassCoversLocalFare bool `json:"pass_covers_local_fare,omitempty"`

	// WalkingModeName is the mode used to reach the boarding station on foot
	// when no transit connection exists. Only rail egress uses it.
	WalkingModeName string `json:"walking_mode_name,omitempty"`
}

// SubwayConfig configures the park and ride subway modes.
type SubwayConfig struct {
	Common

	NetworkName string `json:"network_name"`
	// MinDistance is the shortest trip, in metres, considered.
	MinDistance float64 `json:"min_distance"`

	Constant    float64 `json:"constant"`
	AutoTime    float64 `json:"auto_time"`
	AutoCost    float64 `json:"auto_cost"`
	TransitTime float64 `json:"transit_time"`
	WalkTime    float64 `json:"walk_time"`
	WaitTime    float64 `json:"wait_time"`
	ParkingCost float64 `json:"parking_cost"`
	Peak        float64 `json:"peak"`
	OccSales    float64 `json:"occ_sales"`
	OccGeneral  float64 `json:"occ_general"`
}

// Parameters configures every mode of a Set. A nil section disables the
// mode.
type Parameters struct {
	// AutoModeName names the mode other modes drive with.
	AutoModeName string `json:"auto_mode_name"`

	Auto          *AutoConfig      `json:"auto"`
	Transit       *TransitConfig   `json:"transit"`
	Walking       *WalkingConfig   `json:"walking"`
	Bike          *BikeConfig      `json:"bike"`
	Taxi          *TaxiConfig      `json:"taxi"`
	RideShare     *RideShareConfig `json:"rideshare"`
	SchoolBus     *SchoolBusConfig `json:"schoolbus"`
	Passenger     *PassengerConfig `json:"passenger"`
	GoAccess      *GoConfig        `json:"go_access"`
	GoEgress      *GoConfig        `json:"go_egress"`
	GoNonDrive    *GoConfig        `json:"go_nondrive"`
	TransitAccess *SubwayConfig    `json:"transit_access"`
	TransitEgress *SubwayConfig    `json:"transit_egress"`
}

// DefaultParameters returns every mode enabled with zero coefficients and
// the standard thresholds.
func DefaultParameters() Parameters {
	return Parameters{
		AutoModeName: "Auto",
		Auto: &AutoConfig{
			Common:      common("Auto", 'D', 'A'),
			NetworkName: "Auto",
		},
		Transit: &TransitConfig{
			Common:      common("Transit", 'T', 'T'),
			NetworkName: "Transit",
			MinAgeAlone: 16,
		},
		Walking: &WalkingConfig{
			Common:          common("Walking", 'W', 'W'),
			Speed:           4.5,
			MaxWalkDistance: 4000,
		},
		Bike: &BikeConfig{
			Common:            common("Bike", 'B', 'B'),
			Speed:             15,
			MaxTravelDistance: 12000,
		},
		Taxi: &TaxiConfig{
			Common:        common("Taxi", 'X', 'X'),
			NetworkName:   "Auto",
			MinZone:       1609,
			MaxZone:       2649,
			InitialFare:   2.75,
			PerKFare:      1.32,
			PerMinuteFare: 0.48,
			Tip:           1.1,
			TerminalZones: rangeset.MustParse("10106,10205,10307,20104,20808,20811,20812,40118"),
		},
		RideShare: &RideShareConfig{
			Common:      common("RideShare", 'R', 'R'),
			NetworkName: "Auto",
		},
		SchoolBus: &SchoolBusConfig{
			Common:         common("SchoolBus", 'S', 'S'),
			NetworkName:    "Auto",
			AvailableZones: rangeset.MustParse("0-2200"),
		},
		Passenger: &PassengerConfig{
			Common:           common("Passenger", 'P', 'P'),
			NetworkName:      "Auto",
			MaxDriverTime:    15 * clock.Minute,
			MaxPassengerTime: 30 * clock.Minute,
		},
		GoAccess: &GoConfig{
			Common:      common("GoAccess", 'G', 'G'),
			NetworkName: "GO",
		},
		GoEgress: &GoConfig{
			Common:          common("GoEgress", 'G', 'E'),
			NetworkName:     "GO",
			WalkingModeName: "Walking",
		},
		GoNonDrive: &GoConfig{
			Common:      common("GoNonDrive", 'N', 'N'),
			NetworkName: "GO",
		},
		TransitAccess: &SubwayConfig{
			Common:      common("TransitAccess", 'J', 'J'),
			NetworkName: "Subway",
		},
		TransitEgress: &SubwayConfig{
			Common:      common("TransitEgress", 'K', 'K'),
			NetworkName: "Subway",
		},
	}
}

// DecodeParameters reads JSON parameters over the defaults. A section set to
// null disables its mode.
func DecodeParameters(r io.Reader) (Parameters, error) {
	params := DefaultParameters()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return Parameters{}, fmt.Errorf("decode mode parameters: %w", err)
	}
	return params, nil
}
