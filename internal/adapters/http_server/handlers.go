// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"valomaison/internal/adapters/observability"
	"valomaison/internal/app"
	"valomaison/internal/domain"
)

const maxBody = 64 << 10

var areaCodeRe = regexp.MustCompile(`^[0-9]{5}$`)

type Handlers struct{ E *app.Estimator }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Field  string `json:"field,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/estimate", h.estimate)
	s.mux.Get("/v1/stats/{areaCode}", h.stats)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, field string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Field: field}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

func writeMarshalFailure(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("marshal response failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response could not be encoded", "")
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error(), "")
		return
	}

	crit, err := req.toCriteria()
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			observability.ObserveEstimate("invalid", "", 0)
			writeProblem(w, http.StatusBadRequest, "Invalid criteria", ve.Reason, ve.Field)
			return
		}
		writeProblem(w, http.StatusBadRequest, "Invalid criteria", err.Error(), "")
		return
	}

	res := h.E.Estimate(r.Context(), crit)
	outcome := "ok"
	if res.Error {
		outcome = "no_data"
	}
	observability.ObserveEstimate(outcome, string(res.Confidence), res.Aggregation.RadiusKm)
	log.Debug().
		Str("area", crit.AreaCode).
		Str("type", string(crit.Type)).
		Str("outcome", outcome).
		Int("radius_km", res.Aggregation.RadiusKm).
		Msg("estimate")

	// lack of data is a valid answer, not a transport failure
	body, err := json.Marshal(res)
	if err != nil {
		writeMarshalFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "areaCode")
	if !areaCodeRe.MatchString(code) {
		writeProblem(w, http.StatusBadRequest, "Invalid area code", "must be 5 digits", "code_postal")
		return
	}
	agg := h.E.PriceStats(r.Context(), code)
	if agg.Global.Count == 0 {
		writeProblem(w, http.StatusNotFound, "Not Found", "no sales data for this area", "")
		return
	}

	etag, body, err := calcETagAndBody(statsResponse{AreaCode: code, AggregatedStats: agg})
	if err != nil {
		writeMarshalFailure(w, err)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, body)
}
