package network

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/travelmodel/modechoice/internal/household"
)

// Repository defines the interface for network data persistence.
type Repository interface {
	// Zones returns every zone of the zone system.
	Zones(ctx context.Context) ([]*household.Zone, error)

	// Skims returns every stored skim row.
	Skims(ctx context.Context) ([]SkimRecord, error)

	// Stations returns every station row across networks.
	Stations(ctx context.Context) ([]StationRecord, error)

	// StationAccess returns the closest-station rankings across networks.
	StationAccess(ctx context.Context) ([]AccessRecord, error)

	// GoTables returns the rail tables, or ErrNoGoTables when none exist.
	GoTables(ctx context.Context) (*GoTables, error)
}

// Dataset is the full content of a Repository.
type Dataset struct {
	Zones         []*household.Zone
	Skims         []SkimRecord
	Stations      []StationRecord
	StationAccess []AccessRecord
	GoTables      *GoTables
}

// Build turns a dataset into a snapshot. Every skim network is registered as
// a Matrix, promoted to a StationMatrix when it has station rows. The rail
// tables are registered under their settings' network name. Networks are
// built concurrently.
func Build(ds Dataset) (*Snapshot, error) {
	zones, err := household.NewZoneSystem(ds.Zones)
	if err != nil {
		return nil, err
	}

	stationsByNet := make(map[string][]StationRecord)
	for _, s := range ds.Stations {
		stationsByNet[s.Network] = append(stationsByNet[s.Network], s)
	}
	accessByNet := make(map[string][]AccessRecord)
	for _, a := range ds.StationAccess {
		accessByNet[a.Network] = append(accessByNet[a.Network], a)
	}
	skimsByNet := make(map[string][]SkimRecord)
	for _, rec := range ds.Skims {
		skimsByNet[rec.Network] = append(skimsByNet[rec.Network], rec)
	}

	registry := NewRegistry()
	var g errgroup.Group
	for name, skims := range skimsByNet {
		g.Go(func() error {
			m := NewMatrix(name)
			for _, rec := range skims {
				if _, ok := zones.Get(rec.Origin); !ok {
					return fmt.Errorf("network %s: skim origin %d: %w", name, rec.Origin, household.ErrUnknownZone)
				}
				if _, ok := zones.Get(rec.Destination); !ok {
					return fmt.Errorf("network %s: skim destination %d: %w", name, rec.Destination, household.ErrUnknownZone)
				}
				m.Set(rec.Period, rec.Origin, rec.Destination, rec.Skim)
			}
			if len(stationsByNet[name]) > 0 {
				registry.Register(NewStationMatrix(m, stationsByNet[name], accessByNet[name]))
				return nil
			}
			registry.Register(m)
			return nil
		})
	}
	if ds.GoTables != nil {
		g.Go(func() error {
			name := ds.GoTables.Settings.Network
			registry.RegisterGo(name, NewGoNetwork(*ds.GoTables, stationsByNet[name], accessByNet[name]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Snapshot{Zones: zones, Networks: registry}, nil
}

// LoadDataset reads every table from repo concurrently. A store without rail
// tables yields a nil GoTables.
func LoadDataset(ctx context.Context, repo Repository) (Dataset, error) {
	var ds Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		ds.Zones, err = repo.Zones(ctx)
		return err
	})
	g.Go(func() (err error) {
		ds.Skims, err = repo.Skims(ctx)
		return err
	})
	g.Go(func() (err error) {
		ds.Stations, err = repo.Stations(ctx)
		return err
	})
	g.Go(func() (err error) {
		ds.StationAccess, err = repo.StationAccess(ctx)
		return err
	})
	g.Go(func() error {
		tables, err := repo.GoTables(ctx)
		if errors.Is(err, ErrNoGoTables) {
			return nil
		}
		ds.GoTables = tables
		return err
	})

	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}
