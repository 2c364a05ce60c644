package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/avolkov/sentigo/models"
)

type handlers struct {
	svc AnalysisService
	log zerolog.Logger
}

func newHandlers(svc AnalysisService, logger zerolog.Logger) *handlers {
	return &handlers{svc: svc, log: logger.With().Str("component", "handlers").Logger()}
}

type errorResponse struct {
	Error string `json:"error"`
}

type backtestRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Health reports liveness.
func (h *handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Sentiment serves the daily sentiment series for a ticker. Optional
// from/to query params (YYYY-MM-DD) default to the trailing 7 days.
func (h *handlers) Sentiment(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -7), now
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		// The aggregator includes the whole calendar day of "to".
		if to, err = time.Parse("2006-01-02", v); err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
	}

	series, err := h.svc.HistoricalSentiment(r.Context(), ticker, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker":    strings.ToUpper(ticker),
		"sentiment": series,
	})
}

// Recommendation serves the current trading signal for a ticker.
func (h *handlers) Recommendation(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(mux.Vars(r)["ticker"])
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	rec, err := h.svc.Recommend(r.Context(), ticker)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Backtest runs a simulation for the posted ticker and date range.
func (h *handlers) Backtest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	result, err := h.svc.RunBacktest(r.Context(), req.Ticker, start, end)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// NotFound serves a JSON 404.
func (h *handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, "not found")
}

// writeServiceError maps pipeline errors to HTTP status codes. Bad input
// is 400, data problems are 422, everything else is 500.
func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRange), errors.Is(err, models.ErrConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInsufficientData), errors.Is(err, models.ErrDataGap):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
