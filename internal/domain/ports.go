package domain

import "context"

// TransactionSource returns raw sale records for one area code.
type TransactionSource interface {
	Transactions(ctx context.Context, areaCode string) ([]Transaction, error)
}

// AreaStatsSource returns already-computed statistics for one area code.
// ok is false when the area has no stored summary.
type AreaStatsSource interface {
	AreaSummary(ctx context.Context, areaCode string) (s AreaSummary, ok bool, err error)
}

type Geocoder interface {
	// Locate resolves an area code to its centre. ok is false when the area has
	// no known coordinates.
	Locate(ctx context.Context, areaCode string) (c Coords, ok bool, err error)
	// Nearby lists the areas within radiusKm of center.
	Nearby(ctx context.Context, center Coords, radiusKm int) ([]AreaPoint, error)
}

// AreaStatsWriter persists refreshed per-area statistics.
type AreaStatsWriter interface {
	UpsertAreaStats(ctx context.Context, s AreaSummary) error
	UpsertArea(ctx context.Context, areaCode string, c *Coords) error
}

// Cache is a keyed JSON store shared by request handling and the refresher.
// Implementations must be safe for concurrent use; a Set for an existing key
// overwrites it.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	// Close flushes pending state and releases resources.
	Close() error
}
