package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"valomaison/internal/domain"
)

const DefaultMinTransactions = 10

// Relative spread assumed when only pre-aggregated medians are known.
const (
	singleAreaSpread = 0.15
	mergedAreaSpread = 0.18
)

// Aggregator queries the exact area first and widens through the expander's
// radius tiers until the global bucket holds at least min transactions or the
// tiers run out.
type Aggregator struct {
	raw    domain.TransactionSource
	pre    domain.AreaStatsSource
	exp    *Expander
	min    int
	budget time.Duration
}

// NewAggregator picks the merge strategy from the sources it is given: raw
// transactions are pooled and recomputed when raw is set, otherwise per-area
// summaries from pre are weighted by their counts.
func NewAggregator(raw domain.TransactionSource, pre domain.AreaStatsSource, exp *Expander, minTransactions int) (*Aggregator, error) {
	if raw == nil && pre == nil {
		return nil, errors.New("aggregator: no transaction or area statistics source")
	}
	if exp == nil {
		return nil, errors.New("aggregator: expander is required")
	}
	if minTransactions <= 0 {
		minTransactions = DefaultMinTransactions
	}
	return &Aggregator{raw: raw, pre: pre, exp: exp, min: minTransactions}, nil
}

// SetBudget bounds the time one PriceStats call may spend upstream. Once it is
// spent the search stops and returns what was gathered so far. Zero means no
// bound beyond the caller's context.
func (a *Aggregator) SetBudget(d time.Duration) { a.budget = d }

// PriceStats never fails: unavailable areas are logged and count as empty.
// RadiusKm is the last tier searched to the end.
func (a *Aggregator) PriceStats(ctx context.Context, areaCode string) domain.AggregatedStats {
	if a.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.budget)
		defer cancel()
	}

	m := a.newMerger()
	var used []string
	if m.add(ctx, areaCode) {
		used = append(used, areaCode)
	}
	st := m.stats()
	radius := 0
	partial := false

	if st.Global.Count < a.min && ctx.Err() == nil {
		for tier := range a.exp.Expand(ctx, areaCode) {
			for _, code := range tier.Areas {
				if ctx.Err() != nil {
					break
				}
				if m.add(ctx, code) {
					used = append(used, code)
				}
			}
			st = m.stats()
			// a lookup cut short by the deadline leaves the tier incomplete
			if ctx.Err() != nil {
				break
			}
			radius = tier.RadiusKm
			if st.Global.Count >= a.min {
				break
			}
		}
	}
	if ctx.Err() != nil {
		partial = true
		log.Warn().
			Err(ctx.Err()).
			Str("area", areaCode).
			Int("radius_km", radius).
			Int("count", st.Global.Count).
			Msg("area search stopped early, using partial data")
	}

	if len(used) == 0 {
		used = []string{areaCode}
	}
	return domain.AggregatedStats{
		TypeStats:  st,
		AreasUsed:  used,
		RadiusKm:   radius,
		Aggregated: len(used) > 1,
		Partial:    partial,
	}
}

type merger interface {
	// add merges one area and reports whether it contributed any data.
	add(ctx context.Context, areaCode string) bool
	stats() domain.TypeStats
}

func (a *Aggregator) newMerger() merger {
	if a.raw != nil {
		return &pooledMerger{src: a.raw}
	}
	return &weightedMerger{src: a.pre}
}

// pooledMerger concatenates raw transactions and recomputes from the pool.
type pooledMerger struct {
	src domain.TransactionSource
	txs []domain.Transaction
}

func (m *pooledMerger) add(ctx context.Context, areaCode string) bool {
	txs, err := m.src.Transactions(ctx, areaCode)
	if err != nil {
		log.Warn().Err(err).Str("area", areaCode).Msg("transactions unavailable, treating as empty")
		return false
	}
	contributed := false
	for _, t := range txs {
		if _, ok := usable(t); ok {
			contributed = true
			break
		}
	}
	m.txs = append(m.txs, txs...)
	return contributed
}

func (m *pooledMerger) stats() domain.TypeStats { return StatsByType(m.txs) }

// weightedMerger combines per-area medians weighted by each area's count.
type weightedMerger struct {
	src   domain.AreaStatsSource
	areas []domain.TypeStats
}

func (m *weightedMerger) add(ctx context.Context, areaCode string) bool {
	s, ok, err := m.src.AreaSummary(ctx, areaCode)
	if err != nil {
		log.Warn().Err(err).Str("area", areaCode).Msg("area statistics unavailable, treating as empty")
		return false
	}
	if !ok || s.Stats.Global.Count == 0 {
		return false
	}
	m.areas = append(m.areas, s.Stats)
	return true
}

func (m *weightedMerger) stats() domain.TypeStats {
	switch len(m.areas) {
	case 0:
		return domain.TypeStats{}
	case 1:
		s := m.areas[0]
		return domain.TypeStats{
			Apartment: withSpread(s.Apartment, singleAreaSpread),
			House:     withSpread(s.House, singleAreaSpread),
			Global:    withSpread(s.Global, singleAreaSpread),
		}
	}
	return domain.TypeStats{
		Apartment: weighted(m.areas, func(s domain.TypeStats) domain.PriceStatistics { return s.Apartment }),
		House:     weighted(m.areas, func(s domain.TypeStats) domain.PriceStatistics { return s.House }),
		Global:    weighted(m.areas, func(s domain.TypeStats) domain.PriceStatistics { return s.Global }),
	}
}

// withSpread fills a missing deviation from the assumed relative spread.
func withSpread(p domain.PriceStatistics, spread float64) domain.PriceStatistics {
	if p.Count > 0 && p.StdDev == 0 {
		p.StdDev = p.Mean * spread
	}
	return p
}

func weighted(areas []domain.TypeStats, bucket func(domain.TypeStats) domain.PriceStatistics) domain.PriceStatistics {
	var sum float64
	var n int
	out := domain.PriceStatistics{}
	for _, a := range areas {
		b := bucket(a)
		if b.Count == 0 {
			continue
		}
		if n == 0 || b.Median < out.Min {
			out.Min = b.Median
		}
		if n == 0 || b.Median > out.Max {
			out.Max = b.Median
		}
		sum += b.Median * float64(b.Count)
		n += b.Count
	}
	if n == 0 {
		return domain.PriceStatistics{}
	}
	m := clamp(sum/float64(n), out.Min, out.Max)
	out.Mean = m
	out.Median = m
	out.StdDev = m * mergedAreaSpread
	out.Count = n
	return out
}
