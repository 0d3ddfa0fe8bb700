// Package network provides zone-to-zone level of service data (skims) for the
// mode evaluators, together with its storage and loading.
package network

import (
	"errors"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// Sentinel errors for network operations.
var (
	// ErrNetworkNotFound indicates no network is registered under a name.
	ErrNetworkNotFound = errors.New("network not found")
	// ErrWrongNetworkType indicates a network exists but lacks a capability.
	ErrWrongNetworkType = errors.New("network does not provide the requested data")
	// ErrNotLoaded indicates network data has not been loaded yet.
	ErrNotLoaded = errors.New("network data not loaded")
	// ErrNoGoTables indicates the store holds no rail tables.
	ErrNoGoTables = errors.New("no rail tables stored")
)

// Data answers level of service queries for one network. Implementations
// must be safe for concurrent reads.
type Data interface {
	// Name is the network type name, e.g. "Auto" or "Transit".
	Name() string
	TravelTime(o, d *household.Zone, t clock.Time) clock.Time
	TravelCost(o, d *household.Zone, t clock.Time) float64
	ValidOD(o, d *household.Zone, t clock.Time) bool
}

// TripComponentData splits a transit journey into its components.
type TripComponentData interface {
	Data
	InVehicleTravelTime(o, d *household.Zone, t clock.Time) clock.Time
	WaitTime(o, d *household.Zone, t clock.Time) clock.Time
	WalkTime(o, d *household.Zone, t clock.Time) clock.Time
}

// StationData is component data for a network reached through stations,
// such as park and ride subway access.
type StationData interface {
	TripComponentData
	// ClosestStations returns candidate station zones for zone, closest first.
	ClosestStations(zone *household.Zone) []int
	Station(zone int) (Station, bool)
}

// GoData holds the commuter rail tables. Times are rail timetable durations
// and do not vary by period except for service frequency.
type GoData interface {
	// MinDistance is the shortest trip for which rail is considered.
	MinDistance() float64
	// ServiceWindow bounds the times at which trains run.
	ServiceWindow() (start, end clock.Time)
	ClosestStations(zone int) []int
	Station(zone int) (Station, bool)

	AutoTime(zone, station int) clock.Time
	AutoCost(zone, station int) float64
	LineHaulTime(access, egress int) clock.Time
	TransitAccessTime(zone, station int) clock.Time
	TransitEgressTime(station, zone int) clock.Time
	AccessWalkTime(zone, station int) clock.Time
	AccessWaitTime(zone, station int) clock.Time
	EgressWalkTime(zone, station int) clock.Time
	EgressWaitTime(zone, station int) clock.Time
	GoFare(access, egress int) float64
	TransitFare(zone, station int) float64
	Frequency(access, egress int, t clock.Time) float64
}

// Station describes a station zone.
type Station struct {
	Zone        int
	ParkingCost float64

	// ClosestZone is the zone a pedestrian walks to in order to reach the
	// station, or -1 when the station cannot be reached on foot.
	ClosestZone int
}

// Skim is the level of service between two zones in one period.
type Skim struct {
	TravelTime clock.Time
	Cost       float64
	InVehicle  clock.Time
	Wait       clock.Time
	Walk       clock.Time
	Valid      bool
}

// SkimRecord is one stored skim row.
type SkimRecord struct {
	Network     string
	Period      clock.Period
	Origin      int
	Destination int
	Skim        Skim
}

// StationRecord is one stored station row.
type StationRecord struct {
	Network     string
	Station     int
	ParkingCost float64
	ClosestZone int
}

// AccessRecord ranks a station as a candidate for a zone. Lower ranks are
// closer.
type AccessRecord struct {
	Network string
	Zone    int
	Station int
	Rank    int
}

// GoSettings are the scalar rail parameters.
type GoSettings struct {
	Network      string
	MinDistance  float64
	ServiceStart clock.Time
	ServiceEnd   clock.Time
}

// GoLegRecord holds zone to station access and egress measures.
type GoLegRecord struct {
	Zone              int
	Station           int
	AutoTime          clock.Time
	AutoCost          float64
	TransitAccessTime clock.Time
	TransitEgressTime clock.Time
	AccessWalkTime    clock.Time
	AccessWaitTime    clock.Time
	EgressWalkTime    clock.Time
	EgressWaitTime    clock.Time
	TransitFare       float64
}

// GoLineRecord holds station to station rail measures for one period.
type GoLineRecord struct {
	Access    int
	Egress    int
	Period    clock.Period
	LineHaul  clock.Time
	Fare      float64
	Frequency float64
}

// GoTables is everything needed to build the rail network.
type GoTables struct {
	Settings GoSettings
	Legs     []GoLegRecord
	Lines    []GoLineRecord
}
