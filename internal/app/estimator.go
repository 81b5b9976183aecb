package app

import (
	"context"
	"fmt"
	"math"

	"valomaison/internal/domain"
)

// Bounds of the relative uncertainty band.
const (
	minSpread           = 0.10
	maxSpread           = 0.25
	minAggregatedSpread = 0.12
	maxAggregatedSpread = 0.30
	// used when the bucket mean is zero
	fallbackSpread = 0.15
)

// StatsProvider is what the estimator needs from the aggregation layer.
type StatsProvider interface {
	PriceStats(ctx context.Context, areaCode string) domain.AggregatedStats
}

type Estimator struct {
	stats StatsProvider
	model AdjustmentModel
}

func NewEstimator(s StatsProvider, m AdjustmentModel) *Estimator {
	return &Estimator{stats: s, model: m}
}

// PriceStats exposes the aggregated statistics used for an area.
func (e *Estimator) PriceStats(ctx context.Context, areaCode string) domain.AggregatedStats {
	return e.stats.PriceStats(ctx, areaCode)
}

// Estimate values the property described by c. Criteria must already be
// validated. Lack of market data is reported in the result, not as an error.
func (e *Estimator) Estimate(ctx context.Context, c domain.PropertyCriteria) domain.ValuationResult {
	agg := e.stats.PriceStats(ctx, c.AreaCode)
	info := domain.AggregationInfo{
		AreasUsed:  agg.AreasUsed,
		RadiusKm:   agg.RadiusKm,
		Aggregated: agg.Aggregated,
		Partial:    agg.Partial,
	}

	bucket := agg.For(c.Type)
	if bucket.Count == 0 {
		bucket = agg.Global
	}
	if bucket.Count == 0 {
		return domain.ValuationResult{
			Error:       true,
			Message:     fmt.Sprintf("not enough sales data for area %s and its surroundings", c.AreaCode),
			Aggregation: info,
		}
	}

	adj := e.model.Adjustments(c)
	total := adj.Total()
	surfaceCoef := SurfaceCoefficient(c.Surface)
	pricePerArea := bucket.Median * (1 + total) * surfaceCoef

	value := pricePerArea * c.Surface
	var land *float64
	if c.IsHouse() && c.LandArea != nil && *c.LandArea > 0 {
		lv := LandValue(*c.LandArea, c.AreaCode)
		value += lv
		land = ptr(round(lv))
	}

	spread := relativeSpread(bucket, agg.Aggregated)
	if agg.Aggregated {
		info.Message = fmt.Sprintf("Estimation based on %d areas within %d km", len(agg.AreasUsed), agg.RadiusKm)
	}

	return domain.ValuationResult{
		Low:                   ptr(round(value * (1 - spread))),
		Mid:                   ptr(round(value)),
		High:                  ptr(round(value * (1 + spread))),
		ReferencePricePerArea: ptr(round(bucket.Median)),
		AdjustedPricePerArea:  ptr(round(pricePerArea)),
		SurfaceCoefficient:    surfaceCoef,
		LandValue:             land,
		ReferenceCount:        bucket.Count,
		Confidence:            ConfidenceFor(bucket.Count, agg.Aggregated),
		TotalAdjustment:       total,
		Adjustments:           adj,
		Aggregation:           info,
	}
}

// relativeSpread derives the half-width of the estimate band from the
// bucket's coefficient of variation, clamped to the bounds of its data kind.
func relativeSpread(b domain.PriceStatistics, aggregated bool) float64 {
	r := fallbackSpread
	if b.Mean > 0 {
		r = b.StdDev / b.Mean
	}
	if aggregated {
		return clamp(r, minAggregatedSpread, maxAggregatedSpread)
	}
	return clamp(r, minSpread, maxSpread)
}

// ConfidenceFor labels a sample size. Merged data never rates above medium.
func ConfidenceFor(count int, aggregated bool) domain.Confidence {
	if aggregated {
		switch {
		case count >= 150:
			return domain.ConfidenceMedium
		case count >= 50:
			return domain.ConfidenceLow
		default:
			return domain.ConfidenceVeryLow
		}
	}
	switch {
	case count >= 100:
		return domain.ConfidenceHigh
	case count >= 30:
		return domain.ConfidenceMedium
	case count >= 10:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceVeryLow
	}
}

func round(v float64) float64 { return math.Round(v) }

func ptr[T any](v T) *T { return &v }
