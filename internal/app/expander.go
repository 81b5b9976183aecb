package app

import (
	"context"
	"iter"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rs/zerolog/log"

	"valomaison/internal/domain"
)

var DefaultRadiusTiers = []int{15, 30, 50}

// Tier is one step of the geographic fallback: the radius and the areas first
// reached at that radius, nearest first.
type Tier struct {
	RadiusKm int
	Areas    []string
}

// Expander resolves an area code to neighbouring areas at increasing radii.
// Geocoding results are cached by (area, radius); failed lookups are not.
type Expander struct {
	geo   domain.Geocoder
	cache domain.Cache
	ttl   time.Duration
	tiers []int
}

func NewExpander(g domain.Geocoder, c domain.Cache, ttl time.Duration, tiersKm []int) *Expander {
	if len(tiersKm) == 0 {
		tiersKm = DefaultRadiusTiers
	}
	t := append([]int(nil), tiersKm...)
	sort.Ints(t)
	return &Expander{geo: g, cache: c, ttl: ttl, tiers: t}
}

func (e *Expander) RadiusTiers() []int { return append([]int(nil), e.tiers...) }

// Expand yields the configured tiers in increasing order. Iteration is lazy, so
// a caller that stops early triggers no further geocoding. An area without
// coordinates yields nothing.
func (e *Expander) Expand(ctx context.Context, areaCode string) iter.Seq[Tier] {
	return func(yield func(Tier) bool) {
		if _, ok := e.locate(ctx, areaCode); !ok {
			return
		}
		seen := map[string]bool{areaCode: true}
		for _, r := range e.tiers {
			var fresh []string
			for _, code := range e.Neighbors(ctx, areaCode, r) {
				if !seen[code] {
					seen[code] = true
					fresh = append(fresh, code)
				}
			}
			if !yield(Tier{RadiusKm: r, Areas: fresh}) {
				return
			}
		}
	}
}

// Neighbors returns areaCode followed by every area within radiusKm, ordered by
// distance from its centre.
func (e *Expander) Neighbors(ctx context.Context, areaCode string, radiusKm int) []string {
	key := nearbyKey(areaCode, radiusKm)
	var codes []string
	if ok, err := e.cache.Get(ctx, key, &codes); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok && len(codes) > 0 {
		return codes
	}

	centre, ok := e.locate(ctx, areaCode)
	if !ok {
		return []string{areaCode}
	}
	pts, err := e.geo.Nearby(ctx, centre, radiusKm)
	if err != nil {
		log.Warn().Err(err).Str("area", areaCode).Int("radius_km", radiusKm).Msg("neighbour lookup unavailable")
		return []string{areaCode}
	}

	codes = orderByDistance(areaCode, centre, pts)
	if err := e.cache.Set(ctx, key, codes, int(e.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return codes
}

// centreEntry is the cached form of a Locate answer; Known=false caches the
// fact that an area has no coordinates.
type centreEntry struct {
	Known bool    `json:"known"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

func (e *Expander) locate(ctx context.Context, areaCode string) (domain.Coords, bool) {
	key := centreKey(areaCode)
	var ce centreEntry
	if ok, err := e.cache.Get(ctx, key, &ce); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		return domain.Coords{Lat: ce.Lat, Lon: ce.Lon}, ce.Known
	}

	c, ok, err := e.geo.Locate(ctx, areaCode)
	if err != nil {
		log.Warn().Err(err).Str("area", areaCode).Msg("geocoding unavailable")
		return domain.Coords{}, false
	}
	ce = centreEntry{Known: ok, Lat: c.Lat, Lon: c.Lon}
	if err := e.cache.Set(ctx, key, ce, int(e.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return c, ok
}

// orderByDistance puts self first, then unique neighbours nearest first.
// Neighbours without coordinates go last in provider order.
func orderByDistance(self string, centre domain.Coords, pts []domain.AreaPoint) []string {
	origin := orb.Point{centre.Lon, centre.Lat}
	type ranked struct {
		code string
		dist float64
	}
	seen := map[string]bool{self: true}
	var rs []ranked
	for _, p := range pts {
		if p.AreaCode == "" || seen[p.AreaCode] {
			continue
		}
		seen[p.AreaCode] = true
		d := math.Inf(1)
		if p.Coords != nil {
			d = geo.DistanceHaversine(origin, orb.Point{p.Coords.Lon, p.Coords.Lat})
		}
		rs = append(rs, ranked{code: p.AreaCode, dist: d})
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].dist < rs[j].dist })

	out := make([]string, 0, len(rs)+1)
	out = append(out, self)
	for _, r := range rs {
		out = append(out, r.code)
	}
	return out
}
