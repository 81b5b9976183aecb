package domain

import (
	"strings"
	"time"
)

type PropertyType string

const (
	Apartment PropertyType = "appartement"
	House     PropertyType = "maison"
)

// Transaction is one recorded sale as returned by the transaction provider.
type Transaction struct {
	AreaCode  string    `json:"area_code"`
	Date      time.Time `json:"date"`
	TypeLabel string    `json:"type_label"`
	BuiltArea float64   `json:"built_area"`
	Price     float64   `json:"price"`
	LandArea  *float64  `json:"land_area,omitempty"`
}

func (t Transaction) PricePerArea() float64 {
	if t.BuiltArea <= 0 {
		return 0
	}
	return t.Price / t.BuiltArea
}

func (t Transaction) Type() PropertyType {
	return PropertyType(strings.ToLower(strings.TrimSpace(t.TypeLabel)))
}

// PriceStatistics describes price-per-area over a filtered set of transactions.
// A zero Count means every other field is zero.
type PriceStatistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

type TypeStats struct {
	Apartment PriceStatistics `json:"apartment"`
	House     PriceStatistics `json:"house"`
	Global    PriceStatistics `json:"global"`
}

// For returns the bucket matching pt, or the global bucket for unknown types.
func (s TypeStats) For(pt PropertyType) PriceStatistics {
	switch pt {
	case Apartment:
		return s.Apartment
	case House:
		return s.House
	default:
		return s.Global
	}
}

// AggregatedStats is TypeStats plus the metadata of the geographic fallback
// that produced it. Partial marks a search cut short by its time budget.
type AggregatedStats struct {
	TypeStats
	AreasUsed  []string `json:"areas_used"`
	RadiusKm   int      `json:"radius"`
	Aggregated bool     `json:"is_aggregated"`
	Partial    bool     `json:"partial,omitempty"`
}

// AreaSummary is the pre-aggregated record a statistics store keeps per area.
type AreaSummary struct {
	AreaCode  string    `json:"area_code"`
	Stats     TypeStats `json:"stats"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Coords struct{ Lat, Lon float64 }

// AreaPoint is a neighbouring area returned by a radius query. Coords is nil
// when the provider did not return a centre for it.
type AreaPoint struct {
	AreaCode string
	Coords   *Coords
}
