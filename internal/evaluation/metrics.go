package evaluation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/travelmodel/modechoice/internal/evaluation"

// Metrics holds the OpenTelemetry instruments of evaluation passes.
type Metrics struct {
	households       metric.Int64Counter
	trips            metric.Int64Counter
	feasible         metric.Int64Counter
	passengerMatches metric.Int64Counter
	householdTime    metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func noopMetrics() *Metrics {
	m, _ := newMetrics(noop.NewMeterProvider().Meter(meterName)) //nolint:errcheck // noop instruments never fail
	return m
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	households, err := meter.Int64Counter(
		"modechoice.households.evaluated",
		metric.WithDescription("Households evaluated"),
		metric.WithUnit("{household}"),
	)
	if err != nil {
		return nil, err
	}

	trips, err := meter.Int64Counter(
		"modechoice.trips.evaluated",
		metric.WithDescription("Trips evaluated"),
		metric.WithUnit("{trip}"),
	)
	if err != nil {
		return nil, err
	}

	feasible, err := meter.Int64Counter(
		"modechoice.mode.feasible",
		metric.WithDescription("Trips for which a mode was feasible"),
		metric.WithUnit("{trip}"),
	)
	if err != nil {
		return nil, err
	}

	passengerMatches, err := meter.Int64Counter(
		"modechoice.passenger.matches",
		metric.WithDescription("Passenger trips matched with a household driver"),
		metric.WithUnit("{trip}"),
	)
	if err != nil {
		return nil, err
	}

	householdTime, err := meter.Float64Histogram(
		"modechoice.household.duration",
		metric.WithDescription("Time to evaluate one household in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		households:       households,
		trips:            trips,
		feasible:         feasible,
		passengerMatches: passengerMatches,
		householdTime:    householdTime,
	}, nil
}

func (m *Metrics) recordHousehold(ctx context.Context, r *HouseholdResult, d time.Duration) {
	m.households.Add(ctx, 1)
	m.trips.Add(ctx, int64(len(r.Trips)))
	m.passengerMatches.Add(ctx, int64(len(r.Passengers)))
	m.householdTime.Record(ctx, d.Seconds())

	counts := make(map[string]int64)
	for _, t := range r.Trips {
		for _, mu := range t.Feasible {
			counts[mu.Mode]++
		}
	}
	for name, n := range counts {
		m.feasible.Add(ctx, n, metric.WithAttributes(attribute.String("mode", name)))
	}
}
