package strategy

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/freeeve/rampart/internal/strategy"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// turnMetrics counts what the planners commit. Instruments come from the
// global meter provider, so they are no-ops until one is installed.
type turnMetrics struct {
	placements metric.Int64Counter
	launches   metric.Int64Counter
	emergency  metric.Int64Counter
}

func newTurnMetrics() (*turnMetrics, error) {
	m := meter()
	var (
		tm  turnMetrics
		err error
	)
	tm.placements, err = m.Int64Counter(
		"rampart.placements",
		metric.WithDescription("Structures committed by the placement planner"),
	)
	if err != nil {
		return nil, fmt.Errorf("create placements counter: %w", err)
	}
	tm.launches, err = m.Int64Counter(
		"rampart.launches",
		metric.WithDescription("Mobile units committed by either planner"),
	)
	if err != nil {
		return nil, fmt.Errorf("create launches counter: %w", err)
	}
	tm.emergency, err = m.Int64Counter(
		"rampart.emergency.turns",
		metric.WithDescription("Turns that ended with the emergency flag raised"),
	)
	if err != nil {
		return nil, fmt.Errorf("create emergency counter: %w", err)
	}
	return &tm, nil
}

func (tm *turnMetrics) committed(ctx context.Context, kind string, structure bool, n int) {
	if tm == nil || n == 0 {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if structure {
		tm.placements.Add(ctx, int64(n), attrs)
		return
	}
	tm.launches.Add(ctx, int64(n), attrs)
}

func (tm *turnMetrics) emergencyTurn(ctx context.Context) {
	if tm == nil {
		return
	}
	tm.emergency.Add(ctx, 1)
}
