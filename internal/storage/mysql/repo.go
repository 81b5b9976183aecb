package mysql

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"valomaison/internal/domain"
)

// property_type values stored in area_stats.
const (
	typeApartment = "appartement"
	typeHouse     = "maison"
	typeGlobal    = "global"
)

const kmPerDegreeLat = 111.32

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Repo is the pre-aggregated statistics store. It also answers geocoding
// queries from the coordinates recorded by the refresher.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertArea(ctx context.Context, code string, c *domain.Coords) error {
	var lat, lon *float64
	if c != nil {
		lat, lon = &c.Lat, &c.Lon
	}
	_, err := r.db.ExecContext(ctx, upsertAreaSQL, code, department(code), valF64(lat), valF64(lon))
	return err
}

func (r *Repo) UpsertAreaStats(ctx context.Context, s domain.AreaSummary) error {
	rows := []struct {
		kind string
		p    domain.PriceStatistics
	}{
		{typeApartment, s.Stats.Apartment},
		{typeHouse, s.Stats.House},
		{typeGlobal, s.Stats.Global},
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}

	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*9)
	for _, row := range rows {
		values = append(values, "(?,?,?,?,?,?,?,?,?)")
		args = append(args,
			s.AreaCode, row.kind,
			row.p.Mean, row.p.Median, row.p.Min, row.p.Max, row.p.StdDev, row.p.Count,
			updated,
		)
	}
	_, err := r.db.ExecContext(ctx, upsertStatsPrefix+strings.Join(values, ",")+upsertStatsOnDup, args...)
	return err
}

// AreaSummary implements domain.AreaStatsSource.
func (r *Repo) AreaSummary(ctx context.Context, code string) (domain.AreaSummary, bool, error) {
	rows, err := r.db.QueryContext(ctx, getAreaStatsSQL, code)
	if err != nil {
		return domain.AreaSummary{}, false, err
	}
	defer rows.Close()

	out := domain.AreaSummary{AreaCode: code}
	found := false
	for rows.Next() {
		var kind string
		var p domain.PriceStatistics
		var updated time.Time
		if err := rows.Scan(&kind, &p.Mean, &p.Median, &p.Min, &p.Max, &p.StdDev, &p.Count, &updated); err != nil {
			return domain.AreaSummary{}, false, err
		}
		found = true
		if updated.After(out.UpdatedAt) {
			out.UpdatedAt = updated
		}
		switch kind {
		case typeApartment:
			out.Stats.Apartment = p
		case typeHouse:
			out.Stats.House = p
		case typeGlobal:
			out.Stats.Global = p
		}
	}
	if err := rows.Err(); err != nil {
		return domain.AreaSummary{}, false, err
	}
	return out, found, nil
}

// Locate implements domain.Geocoder from stored coordinates.
func (r *Repo) Locate(ctx context.Context, code string) (domain.Coords, bool, error) {
	var lat, lon sql.NullFloat64
	err := r.db.QueryRowContext(ctx, getAreaCoordsSQL, code).Scan(&lat, &lon)
	if err == sql.ErrNoRows {
		return domain.Coords{}, false, nil
	}
	if err != nil {
		return domain.Coords{}, false, err
	}
	if !lat.Valid || !lon.Valid {
		return domain.Coords{}, false, nil
	}
	return domain.Coords{Lat: lat.Float64, Lon: lon.Float64}, true, nil
}

// Nearby implements domain.Geocoder: every stored area within radiusKm of
// center by great-circle distance.
func (r *Repo) Nearby(ctx context.Context, center domain.Coords, radiusKm int) ([]domain.AreaPoint, error) {
	dLat := float64(radiusKm) / kmPerDegreeLat
	dLon := dLat
	if cos := math.Cos(center.Lat * math.Pi / 180); cos > 1e-6 {
		dLon = dLat / cos
	}
	rows, err := r.db.QueryContext(ctx, areasInBoxSQL,
		center.Lat-dLat, center.Lat+dLat, center.Lon-dLon, center.Lon+dLon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	origin := orb.Point{center.Lon, center.Lat}
	limit := float64(radiusKm) * 1000
	var out []domain.AreaPoint
	for rows.Next() {
		var code string
		var lat, lon float64
		if err := rows.Scan(&code, &lat, &lon); err != nil {
			return nil, err
		}
		if geo.DistanceHaversine(origin, orb.Point{lon, lat}) > limit {
			continue
		}
		out = append(out, domain.AreaPoint{AreaCode: code, Coords: &domain.Coords{Lat: lat, Lon: lon}})
	}
	return out, rows.Err()
}

func (r *Repo) ListAreaCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listAreaCodesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

func department(code string) string {
	if len(code) < 2 {
		return code
	}
	return code[:2]
}
