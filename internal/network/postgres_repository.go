package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"

	"github.com/travelmodel/modechoice/internal/clock"
	"github.com/travelmodel/modechoice/internal/household"
)

// Schema creates the network tables. Durations are stored in minutes.
const Schema = `
CREATE TABLE IF NOT EXISTS zones (
	number            INTEGER PRIMARY KEY,
	x                 DOUBLE PRECISION NOT NULL,
	y                 DOUBLE PRECISION NOT NULL,
	internal_distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	parking_cost      DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS network_skims (
	network         TEXT             NOT NULL,
	period          TEXT             NOT NULL,
	origin          INTEGER          NOT NULL,
	destination     INTEGER          NOT NULL,
	travel_time_min DOUBLE PRECISION NOT NULL DEFAULT 0,
	cost            DOUBLE PRECISION NOT NULL DEFAULT 0,
	ivtt_min        DOUBLE PRECISION NOT NULL DEFAULT 0,
	wait_min        DOUBLE PRECISION NOT NULL DEFAULT 0,
	walk_min        DOUBLE PRECISION NOT NULL DEFAULT 0,
	valid           BOOLEAN          NOT NULL DEFAULT TRUE,
	PRIMARY KEY (network, period, origin, destination)
);

CREATE TABLE IF NOT EXISTS stations (
	network      TEXT             NOT NULL,
	station      INTEGER          NOT NULL,
	parking_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	closest_zone INTEGER          NOT NULL DEFAULT -1,
	PRIMARY KEY (network, station)
);

CREATE TABLE IF NOT EXISTS station_access (
	network TEXT    NOT NULL,
	zone    INTEGER NOT NULL,
	station INTEGER NOT NULL,
	rank    INTEGER NOT NULL,
	PRIMARY KEY (network, zone, station)
);

CREATE TABLE IF NOT EXISTS go_settings (
	network           TEXT PRIMARY KEY,
	min_distance      DOUBLE PRECISION NOT NULL DEFAULT 0,
	service_start_min DOUBLE PRECISION NOT NULL,
	service_end_min   DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS go_legs (
	zone                    INTEGER NOT NULL,
	station                 INTEGER NOT NULL,
	auto_time_min           DOUBLE PRECISION NOT NULL DEFAULT 0,
	auto_cost               DOUBLE PRECISION NOT NULL DEFAULT 0,
	transit_access_time_min DOUBLE PRECISION NOT NULL DEFAULT 0,
	transit_egress_time_min DOUBLE PRECISION NOT NULL DEFAULT 0,
	access_walk_min         DOUBLE PRECISION NOT NULL DEFAULT 0,
	access_wait_min         DOUBLE PRECISION NOT NULL DEFAULT 0,
	egress_walk_min         DOUBLE PRECISION NOT NULL DEFAULT 0,
	egress_wait_min         DOUBLE PRECISION NOT NULL DEFAULT 0,
	transit_fare            DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (zone, station)
);

CREATE TABLE IF NOT EXISTS go_lines (
	access_station INTEGER          NOT NULL,
	egress_station INTEGER          NOT NULL,
	period         TEXT             NOT NULL,
	line_haul_min  DOUBLE PRECISION NOT NULL DEFAULT 0,
	fare           DOUBLE PRECISION NOT NULL DEFAULT 0,
	frequency      DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (access_station, egress_station, period)
);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL network repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the network tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate network schema: %w", err)
	}
	return nil
}

// Zones returns every zone of the zone system.
func (r *PostgresRepository) Zones(ctx context.Context) ([]*household.Zone, error) {
	query := `
		SELECT number, x, y, internal_distance, parking_cost
		FROM zones
		ORDER BY number
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query zones: %w", err)
	}
	defer rows.Close()

	var zones []*household.Zone
	for rows.Next() {
		var (
			z    household.Zone
			x, y float64
		)
		if err := rows.Scan(&z.Number, &x, &y, &z.InternalDistance, &z.ParkingCost); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		z.Point = orb.Point{x, y}
		zones = append(zones, &z)
	}
	return zones, rows.Err()
}

// Skims returns every stored skim row.
func (r *PostgresRepository) Skims(ctx context.Context) ([]SkimRecord, error) {
	query := `
		SELECT
			network, period, origin, destination,
			travel_time_min, cost, ivtt_min, wait_min, walk_min, valid
		FROM network_skims
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query skims: %w", err)
	}
	defer rows.Close()

	var skims []SkimRecord
	for rows.Next() {
		var (
			rec                      SkimRecord
			period                   string
			travel, ivtt, wait, walk float64
		)
		if err := rows.Scan(
			&rec.Network, &period, &rec.Origin, &rec.Destination,
			&travel, &rec.Skim.Cost, &ivtt, &wait, &walk, &rec.Skim.Valid,
		); err != nil {
			return nil, fmt.Errorf("scan skim: %w", err)
		}
		p, ok := clock.ParsePeriod(period)
		if !ok {
			return nil, fmt.Errorf("skim %s %d-%d: unknown period %q", rec.Network, rec.Origin, rec.Destination, period)
		}
		rec.Period = p
		rec.Skim.TravelTime = clock.FromMinutes(travel)
		rec.Skim.InVehicle = clock.FromMinutes(ivtt)
		rec.Skim.Wait = clock.FromMinutes(wait)
		rec.Skim.Walk = clock.FromMinutes(walk)
		skims = append(skims, rec)
	}
	return skims, rows.Err()
}

// Stations returns every station row across networks.
func (r *PostgresRepository) Stations(ctx context.Context) ([]StationRecord, error) {
	query := `
		SELECT network, station, parking_cost, closest_zone
		FROM stations
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []StationRecord
	for rows.Next() {
		var s StationRecord
		if err := rows.Scan(&s.Network, &s.Station, &s.ParkingCost, &s.ClosestZone); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// StationAccess returns the closest-station rankings across networks.
func (r *PostgresRepository) StationAccess(ctx context.Context) ([]AccessRecord, error) {
	query := `
		SELECT network, zone, station, rank
		FROM station_access
		ORDER BY network, zone, rank
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query station access: %w", err)
	}
	defer rows.Close()

	var access []AccessRecord
	for rows.Next() {
		var a AccessRecord
		if err := rows.Scan(&a.Network, &a.Zone, &a.Station, &a.Rank); err != nil {
			return nil, fmt.Errorf("scan station access: %w", err)
		}
		access = append(access, a)
	}
	return access, rows.Err()
}

// GoTables returns the rail tables, or ErrNoGoTables when none exist.
func (r *PostgresRepository) GoTables(ctx context.Context) (*GoTables, error) {
	var (
		tables     GoTables
		start, end float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT network, min_distance, service_start_min, service_end_min
		FROM go_settings
		LIMIT 1
	`).Scan(&tables.Settings.Network, &tables.Settings.MinDistance, &start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoGoTables
		}
		return nil, fmt.Errorf("query rail settings: %w", err)
	}
	tables.Settings.ServiceStart = clock.FromMinutes(start)
	tables.Settings.ServiceEnd = clock.FromMinutes(end)

	if tables.Legs, err = r.goLegs(ctx); err != nil {
		return nil, err
	}
	if tables.Lines, err = r.goLines(ctx); err != nil {
		return nil, err
	}
	return &tables, nil
}

func (r *PostgresRepository) goLegs(ctx context.Context) ([]GoLegRecord, error) {
	query := `
		SELECT
			zone, station, auto_time_min, auto_cost,
			transit_access_time_min, transit_egress_time_min,
			access_walk_min, access_wait_min, egress_walk_min, egress_wait_min,
			transit_fare
		FROM go_legs
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rail legs: %w", err)
	}
	defer rows.Close()

	var legs []GoLegRecord
	for rows.Next() {
		var (
			leg                        GoLegRecord
			autoTime, access, egress   float64
			aWalk, aWait, eWalk, eWait float64
		)
		if err := rows.Scan(
			&leg.Zone, &leg.Station, &autoTime, &leg.AutoCost,
			&access, &egress,
			&aWalk, &aWait, &eWalk, &eWait,
			&leg.TransitFare,
		); err != nil {
			return nil, fmt.Errorf("scan rail leg: %w", err)
		}
		leg.AutoTime = clock.FromMinutes(autoTime)
		leg.TransitAccessTime = clock.FromMinutes(access)
		leg.TransitEgressTime = clock.FromMinutes(egress)
		leg.AccessWalkTime = clock.FromMinutes(aWalk)
		leg.AccessWaitTime = clock.FromMinutes(aWait)
		leg.EgressWalkTime = clock.FromMinutes(eWalk)
		leg.EgressWaitTime = clock.FromMinutes(eWait)
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (r *PostgresRepository) goLines(ctx context.Context) ([]GoLineRecord, error) {
	query := `
		SELECT access_station, egress_station, period, line_haul_min, fare, frequency
		FROM go_lines
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rail lines: %w", err)
	}
	defer rows.Close()

	var lines []GoLineRecord
	for rows.Next() {
		var (
			line     GoLineRecord
			period   string
			lineHaul float64
		)
		if err := rows.Scan(&line.Access, &line.Egress, &period, &lineHaul, &line.Fare, &line.Frequency); err != nil {
			return nil, fmt.Errorf("scan rail line: %w", err)
		}
		p, ok := clock.ParsePeriod(period)
		if !ok {
			return nil, fmt.Errorf("rail line %d-%d: unknown period %q", line.Access, line.Egress, period)
		}
		line.Period = p
		line.LineHaul = clock.FromMinutes(lineHaul)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
