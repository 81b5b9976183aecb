package mysql

const upsertAreaSQL = `
INSERT INTO areas (code, department, lat, lon)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  department = VALUES(department),
  lat        = COALESCE(VALUES(lat), areas.lat),
  lon        = COALESCE(VALUES(lon), areas.lon)
`

const upsertStatsPrefix = "INSERT INTO area_stats\n  (area_code, property_type, mean_ppa, median_ppa, min_ppa, max_ppa, stddev_ppa, tx_count, updated_at)\nVALUES "

const upsertStatsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  mean_ppa   = VALUES(mean_ppa),\n" +
	"  median_ppa = VALUES(median_ppa),\n" +
	"  min_ppa    = VALUES(min_ppa),\n" +
	"  max_ppa    = VALUES(max_ppa),\n" +
	"  stddev_ppa = VALUES(stddev_ppa),\n" +
	"  tx_count   = VALUES(tx_count),\n" +
	"  updated_at = VALUES(updated_at)\n"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getAreaStatsSQL = `
SELECT property_type, mean_ppa, median_ppa, min_ppa, max_ppa, stddev_ppa, tx_count, updated_at
FROM area_stats
WHERE area_code = ?
`

const getAreaCoordsSQL = `
SELECT lat, lon FROM areas WHERE code = ?
`

// Bounding-box prefilter; exact distance is checked in Go.
const areasInBoxSQL = `
SELECT code, lat, lon
FROM areas
WHERE lat BETWEEN ? AND ?
  AND lon BETWEEN ? AND ?
`

const listAreaCodesSQL = `
SELECT code FROM areas ORDER BY code
`
