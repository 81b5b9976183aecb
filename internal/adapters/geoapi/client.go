// internal/adapters/geoapi/client.go
package geoapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"valomaison/internal/adapters/upstream"
	"valomaison/internal/domain"
)

const DefaultBaseURL = "https://geo.api.gouv.fr"

// Client resolves postal codes to coordinates and lists communes in a radius.
type Client struct {
	base string
	f    *upstream.Fetcher
}

func New(base string, timeout time.Duration, rl *rate.Limiter, rp upstream.RetryPolicy) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{base: strings.TrimRight(base, "/"), f: upstream.NewFetcher("geo", timeout, rl, rp)}
}

type commune struct {
	Name        string   `json:"nom"`
	Centre      *point   `json:"centre"`
	PostalCodes []string `json:"codesPostaux"`
}

// point is a GeoJSON point: coordinates are [lon, lat].
type point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (p *point) coords() (*domain.Coords, bool) {
	if p == nil || len(p.Coordinates) < 2 {
		return nil, false
	}
	return &domain.Coords{Lon: p.Coordinates[0], Lat: p.Coordinates[1]}, true
}

func (c *Client) Locate(ctx context.Context, areaCode string) (domain.Coords, bool, error) {
	var out []commune
	params := url.Values{"codePostal": {areaCode}, "fields": {"centre,codesPostaux"}}
	err := c.f.GetJSON(ctx, "communes_by_code", c.base+"/communes", params, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Coords{}, false, nil
	}
	if err != nil {
		return domain.Coords{}, false, err
	}
	for _, cm := range out {
		if pt, ok := cm.Centre.coords(); ok {
			return *pt, true, nil
		}
	}
	return domain.Coords{}, false, nil
}

// Nearby returns one point per postal code of every commune within radiusKm.
func (c *Client) Nearby(ctx context.Context, center domain.Coords, radiusKm int) ([]domain.AreaPoint, error) {
	var out []commune
	params := url.Values{
		"lat":      {strconv.FormatFloat(center.Lat, 'f', 6, 64)},
		"lon":      {strconv.FormatFloat(center.Lon, 'f', 6, 64)},
		"distance": {strconv.Itoa(radiusKm * 1000)},
		"fields":   {"centre,codesPostaux"},
	}
	if err := c.f.GetJSON(ctx, "communes_nearby", c.base+"/communes", params, &out); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var pts []domain.AreaPoint
	for _, cm := range out {
		pt, _ := cm.Centre.coords()
		for _, pc := range cm.PostalCodes {
			pts = append(pts, domain.AreaPoint{AreaCode: pc, Coords: pt})
		}
	}
	return pts, nil
}
