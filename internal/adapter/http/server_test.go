package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/snow-drift-etl/internal/adapter/http"
	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/couchcryptid/snow-drift-etl/internal/observability"
	"github.com/couchcryptid/snow-drift-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockBuilder struct {
	report domain.DriftReport
	err    error
	body   []byte
}

func (m *mockBuilder) Build(_ context.Context, payload []byte) (domain.DriftReport, error) {
	m.body = payload
	return m.report, m.err
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, &mockBuilder{}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func postDrift(srv *httpadapter.Server, body, accept string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/snow-drift", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func TestSnowDrift_ReturnsReport(t *testing.T) {
	builder := &mockBuilder{report: domain.DriftReport{ID: "abc", Hours: 24, Params: domain.DefaultParams()}}
	srv := httpadapter.NewServer(":0", &mockReadiness{}, builder, slog.Default())

	rec := postDrift(srv, `{"hourly":{}}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ContentTypeJSON, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"hourly":{}}`, string(builder.body))

	var got domain.DriftReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 24, got.Hours)
}

func TestSnowDrift_MsgPackAccept(t *testing.T) {
	builder := &mockBuilder{report: domain.DriftReport{ID: "abc", Hours: 24}}
	srv := httpadapter.NewServer(":0", &mockReadiness{}, builder, slog.Default())

	rec := postDrift(srv, `{}`, domain.ContentTypeMsgPack)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ContentTypeMsgPack, rec.Header().Get("Content-Type"))

	dec := msgpack.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.SetCustomStructTag("json")
	var got map[string]any
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, "abc", got["id"])
}

func TestSnowDrift_ErrorStatus(t *testing.T) {
	_, parseErr := domain.ParseRawEvent(domain.RawEvent{Value: []byte("nope")})
	require.Error(t, parseErr)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"parse", parseErr, http.StatusBadRequest},
		{"validation", &domain.ValidationError{Field: "theta", Index: -1, Reason: "must be within [0, 1]"}, http.StatusUnprocessableEntity},
		{"data quality", &domain.DataQualityError{Field: "hourly.time", Index: 4, Reason: "unrecognized timestamp"}, http.StatusUnprocessableEntity},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httpadapter.NewServer(":0", &mockReadiness{}, &mockBuilder{err: tc.err}, slog.Default())
			rec := postDrift(srv, `{}`, "")

			assert.Equal(t, tc.want, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}

func TestSnowDrift_RejectsGet(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/snow-drift", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSnowDrift_EndToEnd(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm, err := pipeline.NewTransformer(domain.DefaultParams(), pipeline.NewAnalyzer(2), slog.Default(), metrics)
	require.NoError(t, err)
	srv := httpadapter.NewServer(":0", &mockReadiness{}, tfm, slog.Default())

	body := `{
		"location": {"name": "Finse", "lat": 60.6, "lon": 7.5},
		"hourly": {
			"time": ["2022-01-10T00:00", "2022-01-10T01:00", "2022-01-10T02:00"],
			"temperature_2m": [-8.0, -7.5, -7.0],
			"precipitation": [0.4, 0.2, 0.0],
			"wind_speed_10m": [12.0, 14.0, 9.0],
			"wind_direction_10m": [270.0, 275.0, null]
		}
	}`
	rec := postDrift(srv, body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got domain.DriftReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Finse", got.Location.Name)
	assert.Equal(t, 3, got.Hours)
	assert.Equal(t, 1, got.MissingDirections)
	require.Len(t, got.Seasons, 1)
	assert.Equal(t, "2021-2022", got.Seasons[0].Season)
	assert.InDelta(t, 0.6, got.Seasons[0].Swe, 1e-9)
	assert.Positive(t, got.Seasons[0].Sectors[12])
}
