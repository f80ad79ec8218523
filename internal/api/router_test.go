package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark1ns0n/country-days-backend/internal/aggregation"
	"github.com/mark1ns0n/country-days-backend/internal/config"
	"github.com/mark1ns0n/country-days-backend/internal/database"
	"github.com/mark1ns0n/country-days-backend/internal/middleware"
	"github.com/mark1ns0n/country-days-backend/internal/repository"
	"github.com/mark1ns0n/country-days-backend/internal/service"
)

const testSecret = "test-secret"

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	cfg := &config.Config{
		JWTSecret: testSecret,
		Timezone:  time.UTC,
	}

	stays := repository.NewStayRepository(db)
	logs := repository.NewLogRepository(db)
	summaries := repository.NewSummaryRepository(db)
	agg := aggregation.New(time.UTC)

	stats := service.NewStatsService(stays, summaries, agg)
	timeline := service.NewTimelineService(stays, logs, service.TimelineOptions{})

	return SetupRouter(cfg, timeline, stats)
}

func authedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	token, err := middleware.IssueToken(testSecret, "test", time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func observationBody(code string, at time.Time, lat, lon float64) map[string]interface{} {
	return map[string]interface{}{
		"latitude":    lat,
		"longitude":   lon,
		"countryCode": code,
		"timestamp":   at.Unix(),
		"source":      "test",
		"confidence":  1.0,
	}
}

func TestHealthIsUnauthenticated(t *testing.T) {
	r := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresAuth(t *testing.T) {
	r := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/intervals", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestObservationFlow(t *testing.T) {
	r := newServer(t)
	t0 := time.Now().UTC().Add(-2 * time.Hour)

	// First observation opens a US interval.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("US", t0, 40.7, -74.0)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Accepted bool   `json:"accepted"`
			Change   string `json:"change"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Accepted)
	assert.Equal(t, "CREATED", resp.Data.Change)

	// Switch to FR an hour later.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("FR", t0.Add(time.Hour), 48.85, 2.35)))
	require.Equal(t, http.StatusOK, w.Code)

	// The open interval is now FR.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/intervals/open", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"countryCode":"FR"`)

	// Both intervals are listed.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/intervals", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.EqualValues(t, 2, listResp.Data.Total)
}

func TestOpenIntervalNotFound(t *testing.T) {
	r := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/intervals/open", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRejectedObservationIsLogged(t *testing.T) {
	r := newServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("", time.Now(), 40.7, -74.0)))
	require.Equal(t, http.StatusOK, w.Code, "input rejection is not an HTTP error")
	assert.Contains(t, w.Body.String(), "no country code resolved")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/logs?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":false`)
}

func TestStatsEndpoints(t *testing.T) {
	r := newServer(t)
	now := time.Now().UTC()
	t0 := now.Add(-48 * time.Hour)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("US", t0, 40.7, -74.0)))
	require.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("FR", t0.Add(24*time.Hour), 48.85, 2.35)))
	require.Equal(t, http.StatusOK, w.Code)

	rangeQS := fmt.Sprintf("from=%d&to=%d", t0.Unix(), now.Unix())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/stats/days-by-country?"+rangeQS, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"FR"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/stats/visited?"+rangeQS, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/stats/forecast?code=FR&"+rangeQS, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"countriesCount":2`)
}

func TestForecastNormalizesCountryCode(t *testing.T) {
	r := newServer(t)
	now := time.Now().UTC()
	t0 := now.Add(-48 * time.Hour)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("FR", t0, 48.85, 2.35)))
	require.Equal(t, http.StatusOK, w.Code)

	rangeQS := fmt.Sprintf("from=%d&to=%d", t0.Unix(), now.Unix())

	// Lowercase input matches the uppercase codes stored on intervals.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/stats/forecast?code=fr&"+rangeQS, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"FR"`)
	assert.Contains(t, w.Body.String(), `"daysUntilLoss":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/stats/forecast?code=fra&"+rangeQS, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIntervalsPageSizeClamped(t *testing.T) {
	r := newServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("US", time.Now().UTC().Add(-time.Hour), 40.7, -74.0)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/intervals?pageSize=5000", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total      int64 `json:"total"`
			PageSize   int   `json:"pageSize"`
			TotalPages int   `json:"totalPages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1000, resp.Data.PageSize, "reported page size must match the query clamp")
	assert.Equal(t, 1, resp.Data.TotalPages)
}

func TestStatsRangeValidation(t *testing.T) {
	r := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/stats/days-by-country", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarEndpoint(t *testing.T) {
	r := newServer(t)
	now := time.Now().UTC()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/observations", observationBody("US", now.Add(-time.Hour), 40.7, -74.0)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/calendar?month="+now.Format("2006-01"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), now.Format("2006-01-02"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/api/v1/calendar?month=junk", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	r := newServer(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/api/v1/admin/reconcile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"consistent":true`)
}
