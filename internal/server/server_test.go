package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/sentigo/models"
)

type stubService struct {
	rec       *models.Recommendation
	sentiment []models.DailySentiment
	result    *models.BacktestResult
	err       error
}

func (s *stubService) Recommend(context.Context, string) (*models.Recommendation, error) {
	return s.rec, s.err
}

func (s *stubService) HistoricalSentiment(context.Context, string, time.Time, time.Time) ([]models.DailySentiment, error) {
	return s.sentiment, s.err
}

func (s *stubService) RunBacktest(context.Context, string, time.Time, time.Time) (*models.BacktestResult, error) {
	return s.result, s.err
}

func newTestServer(svc AnalysisService) *Server {
	return New(DefaultServerConfig("127.0.0.1", 0), svc, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubService{})
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRecommendationOK(t *testing.T) {
	svc := &stubService{rec: &models.Recommendation{
		Ticker: "AAPL",
		Signal: models.TradingSignal{Ticker: "AAPL", Type: models.SignalBuy, Confidence: 0.7},
	}}
	srv := newTestServer(svc)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/recommendation/AAPL", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	require.Equal(t, models.SignalBuy, rec.Signal.Type)
}

func TestSentimentBadDates(t *testing.T) {
	srv := newTestServer(&stubService{})
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/sentiment/AAPL?from=yesterday", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBacktestOK(t *testing.T) {
	svc := &stubService{result: &models.BacktestResult{Ticker: "TSLA", TotalReturn: 12.5}}
	srv := newTestServer(svc)

	body := strings.NewReader(`{"ticker":"TSLA","start_date":"2024-01-02","end_date":"2024-06-28"}`)
	req := httptest.NewRequest("POST", "/api/v1/backtest", body)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var result models.BacktestResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Equal(t, "TSLA", result.Ticker)
	require.InDelta(t, 12.5, result.TotalReturn, 1e-9)
}

func TestBacktestRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(&stubService{})
	req := httptest.NewRequest("POST", "/api/v1/backtest", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("range: %w", models.ErrInvalidRange), http.StatusBadRequest},
		{fmt.Errorf("cfg: %w", models.ErrConfiguration), http.StatusBadRequest},
		{fmt.Errorf("bars: %w", models.ErrInsufficientData), http.StatusUnprocessableEntity},
		{fmt.Errorf("gap: %w", models.ErrDataGap), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := newTestServer(&stubService{err: tc.err})
		rr := httptest.NewRecorder()
		srv.router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/recommendation/AAPL", nil))
		require.Equal(t, tc.want, rr.Code, "error %v", tc.err)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Error)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(&stubService{})
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, httptest.NewRequest("GET", "/nope", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}
