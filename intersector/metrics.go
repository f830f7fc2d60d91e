package intersector

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Query outcomes, as recorded in the "result" tag.
const (
	outcomeHit      = "hit"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

var (
	resultKey = tag.MustNewKey("result")

	queryCount = stats.Int64("ray_queries", "", stats.UnitDimensionless)

	// QueryCountView counts finished ray queries by outcome.
	QueryCountView = &view.View{
		Name:        "ray_queries",
		Description: "Counter of ray queries that have been answered",

		TagKeys: []tag.Key{resultKey},

		Measure:     queryCount,
		Aggregation: view.Count(),
	}
)

// RegisterMetrics registers the package's views with opencensus.
func RegisterMetrics() error {
	return view.Register(QueryCountView)
}

func recordOutcome(ctx context.Context, outcome string) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Insert(resultKey, outcome)),
		stats.WithMeasurements(queryCount.M(1)))
}
