package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fortuna/victoria/internal/rank"
	"github.com/fortuna/victoria/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		day     string
		start   string
		wantErr bool
	}{
		{name: "defaults", query: "", day: "All"},
		{name: "explicit all", query: "day=All", day: "All"},
		{name: "single day", query: "day=2025-10-14", day: "2025-10-14"},
		{name: "start date", query: "start=2025-10-12", day: "All", start: "2025-10-12"},
		{name: "bad day", query: "day=14/10/2025", wantErr: true},
		{name: "bad start", query: "start=soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/rankings?"+tt.query, nil)
			day, start, err := parseFilter(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.day, day)
			if tt.start == "" {
				assert.Nil(t, start)
			} else {
				require.NotNil(t, start)
				assert.Equal(t, tt.start, start.Format("2006-01-02"))
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "victoria", body["service"])
}

func TestRespondSnapshotError(t *testing.T) {
	w := httptest.NewRecorder()
	respondSnapshotError(w, store.ErrNoSnapshot)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	respondSnapshotError(w, errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRespondReportError(t *testing.T) {
	w := httptest.NewRecorder()
	respondReportError(w, rank.ErrNoResults)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	respondReportError(w, store.ErrNoSnapshot)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	respondReportError(w, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, http.StatusBadRequest, "Invalid filter", errors.New("bad day"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid filter", body["error"])
	assert.Equal(t, "bad day", body["details"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestRecoveryMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	w := httptest.NewRecorder()
	RecoveryMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	CORSMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/rankings", nil))

	// Preflight requests never reach the handler.
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
