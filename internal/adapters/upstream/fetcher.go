// internal/adapters/upstream/fetcher.go
package upstream

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"valomaison/internal/adapters/observability"
	"valomaison/internal/domain"
)

// NewLimiter returns a gate that lets one request through every interval.
// Share one instance across every client that talks to the same upstreams.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// RetryPolicy bounds the attempts made for one logical request.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
}

var DefaultRetry = RetryPolicy{Attempts: 3, Base: 200 * time.Millisecond}

// Fetcher performs rate-limited JSON GETs with bounded retries.
type Fetcher struct {
	service string
	hc      *http.Client
	rl      *rate.Limiter
	retry   RetryPolicy
	ua      string
}

func NewFetcher(service string, timeout time.Duration, rl *rate.Limiter, rp RetryPolicy) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if rl == nil {
		rl = NewLimiter(0)
	}
	if rp.Attempts <= 0 {
		rp = DefaultRetry
	}
	return &Fetcher{
		service: service,
		hc:      &http.Client{Timeout: timeout},
		rl:      rl,
		retry:   rp,
		ua:      "valomaison/1.0",
	}
}

// GetJSON fetches base?params and decodes the body into out. Every attempt
// waits on the shared limiter. Retries on transport errors, 429 and transient
// 5xx, honoring Retry-After when provided. 404 maps to domain.ErrNotFound;
// anything else that fails maps to domain.ErrDataUnavailable.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint, base string, params url.Values, out any) error {
	u := base
	if len(params) > 0 {
		u = base + "?" + params.Encode()
	}

	var lastErr error
	last := f.retry.Attempts - 1
	for i := 0; i < f.retry.Attempts; i++ {
		if err := f.rl.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, f.service, err)
		}

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", f.ua)

		start := time.Now()
		resp, err := f.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(f.service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, f.service, ctx.Err())
			}
			lastErr = err
			if i < last && sleepCtx(ctx, f.backoff(i)) {
				continue
			}
			break
		}
		observability.ObserveExternal(f.service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: %s: decode: %v", domain.ErrDataUnavailable, f.service, err)
			}
			return nil

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%s: %w", f.service, domain.ErrNotFound)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = f.backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < last && sleepCtx(ctx, wait) {
				continue
			}

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%w: %s: bad status %d: %s", domain.ErrDataUnavailable, f.service, resp.StatusCode, strings.TrimSpace(string(b)))
		}
		break
	}

	if lastErr == nil {
		lastErr = errors.New("no attempt made")
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, f.service, lastErr)
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles the policy base each attempt with up to +50% jitter.
func (f *Fetcher) backoff(i int) time.Duration {
	base := time.Duration(1<<i) * f.retry.Base
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	frac := float64(b[0]) / 255.0
	return base + time.Duration(0.5*frac*float64(base))
}
