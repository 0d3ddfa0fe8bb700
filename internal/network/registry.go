package network

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/travelmodel/modechoice/internal/household"
)

// Registry resolves networks by name. Networks may be registered from
// several loader goroutines at once.
type Registry struct {
	networks *xsync.MapOf[string, Data]
	goData   *xsync.MapOf[string, GoData]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		networks: xsync.NewMapOf[string, Data](),
		goData:   xsync.NewMapOf[string, GoData](),
	}
}

// Register adds or replaces a network.
func (r *Registry) Register(d Data) {
	r.networks.Store(d.Name(), d)
}

// RegisterGo adds or replaces the rail network under name.
func (r *Registry) RegisterGo(name string, g GoData) {
	r.goData.Store(name, g)
}

// Get returns the network registered under name.
func (r *Registry) Get(name string) (Data, error) {
	d, ok := r.networks.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNetworkNotFound, name)
	}
	return d, nil
}

// TripComponent returns the named network as component data.
func (r *Registry) TripComponent(name string) (TripComponentData, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	tc, ok := d.(TripComponentData)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no trip components", ErrWrongNetworkType, name)
	}
	return tc, nil
}

// Stations returns the named network as station data.
func (r *Registry) Stations(name string) (StationData, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	sd, ok := d.(StationData)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no station tables", ErrWrongNetworkType, name)
	}
	return sd, nil
}

// Go returns the rail network registered under name.
func (r *Registry) Go(name string) (GoData, error) {
	g, ok := r.goData.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: rail network %q", ErrNetworkNotFound, name)
	}
	return g, nil
}

// Names returns the registered network names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.networks.Size()+r.goData.Size())
	r.networks.Range(func(name string, _ Data) bool {
		names = append(names, name)
		return true
	})
	r.goData.Range(func(name string, _ GoData) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Snapshot is one consistent load of zones and networks.
type Snapshot struct {
	Zones    *household.ZoneSystem
	Networks *Registry
}
