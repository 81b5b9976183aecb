// internal/adapters/dvf/client.go
package dvf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"valomaison/internal/adapters/upstream"
	"valomaison/internal/domain"
)

const DefaultBaseURL = "https://api.cquest.org/dvf"

// Client reads sale transactions from a DVF API.
type Client struct {
	base    string
	f       *upstream.Fetcher
	minYear int
}

// New builds a client; rl should be the limiter shared with every other
// upstream client.
func New(base string, timeout time.Duration, rl *rate.Limiter, rp upstream.RetryPolicy, minYear int) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		f:       upstream.NewFetcher("dvf", timeout, rl, rp),
		minYear: minYear,
	}
}

type response struct {
	Results []record `json:"resultats"`
}

type record struct {
	Date      string   `json:"date_mutation"`
	TypeLocal string   `json:"type_local"`
	PostCode  string   `json:"code_postal"`
	Price     flexNum  `json:"valeur_fonciere"`
	Built     flexNum  `json:"surface_reelle_bati"`
	BuiltTypo flexNum  `json:"surface_relle_bati"` // upstream misspelling
	Land      *flexNum `json:"surface_terrain"`
}

// Transactions returns the sales of areaCode since the configured year.
// A 404 is an area without sales, not a failure.
func (c *Client) Transactions(ctx context.Context, areaCode string) ([]domain.Transaction, error) {
	var out response
	err := c.f.GetJSON(ctx, "transactions", c.base, url.Values{"code_postal": {areaCode}}, &out)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	txs := make([]domain.Transaction, 0, len(out.Results))
	for _, r := range out.Results {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
		if err != nil || d.Year() < c.minYear {
			continue
		}
		t := domain.Transaction{
			AreaCode:  areaCode,
			Date:      d,
			TypeLabel: strings.TrimSpace(r.TypeLocal),
			Price:     float64(r.Price),
			BuiltArea: float64(r.BuiltTypo),
		}
		if t.BuiltArea == 0 {
			t.BuiltArea = float64(r.Built)
		}
		if r.PostCode != "" {
			t.AreaCode = r.PostCode
		}
		if r.Land != nil && *r.Land > 0 {
			v := float64(*r.Land)
			t.LandArea = &v
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// flexNum accepts a JSON number, a numeric string (comma or dot decimal) or
// null. Unparseable values decode to zero.
type flexNum float64

func (n *flexNum) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = flexNum(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*n = 0
		return nil
	}
	*n = flexNum(f)
	return nil
}
