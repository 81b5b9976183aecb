package app

import (
	"math"
	"sort"

	"valomaison/internal/domain"
)

// Outlier thresholds applied before any statistic is computed.
const (
	minBuiltArea    = 9.0
	minPrice        = 5000.0
	minPricePerArea = 100.0
	maxPricePerArea = 25000.0
)

// usable reports whether t survives the outlier filter and returns its
// price per area.
func usable(t domain.Transaction) (float64, bool) {
	if t.BuiltArea <= minBuiltArea || t.Price <= minPrice {
		return 0, false
	}
	ppa := t.PricePerArea()
	if ppa <= minPricePerArea || ppa >= maxPricePerArea {
		return 0, false
	}
	return ppa, true
}

// ComputeStats reduces txs to price-per-area statistics. The standard
// deviation is the population one. An empty filtered set yields the zero value.
func ComputeStats(txs []domain.Transaction) domain.PriceStatistics {
	prices := make([]float64, 0, len(txs))
	for _, t := range txs {
		if p, ok := usable(t); ok {
			prices = append(prices, p)
		}
	}
	return describe(prices)
}

func describe(prices []float64) domain.PriceStatistics {
	n := len(prices)
	if n == 0 {
		return domain.PriceStatistics{}
	}
	sort.Float64s(prices)

	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(n)

	var sq float64
	for _, p := range prices {
		d := p - mean
		sq += d * d
	}

	median := prices[n/2]
	if n%2 == 0 {
		median = (prices[n/2-1] + prices[n/2]) / 2
	}

	return domain.PriceStatistics{
		Mean:   clamp(mean, prices[0], prices[n-1]),
		Median: median,
		Min:    prices[0],
		Max:    prices[n-1],
		StdDev: math.Sqrt(sq / float64(n)),
		Count:  n,
	}
}

// StatsByType splits txs by property type and computes each bucket plus the
// global one.
func StatsByType(txs []domain.Transaction) domain.TypeStats {
	var apts, houses []domain.Transaction
	for _, t := range txs {
		switch t.Type() {
		case domain.Apartment:
			apts = append(apts, t)
		case domain.House:
			houses = append(houses, t)
		}
	}
	return domain.TypeStats{
		Apartment: ComputeStats(apts),
		House:     ComputeStats(houses),
		Global:    ComputeStats(txs),
	}
}

// clamp guards against floating-point drift pushing the mean outside [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
