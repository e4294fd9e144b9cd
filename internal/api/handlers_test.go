package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei/datagov-gateway/internal/config"
	"github.com/lei/datagov-gateway/internal/service"
	"github.com/lei/datagov-gateway/pkg/datagov"
	"github.com/lei/datagov-gateway/pkg/logger"
)

const testKey = "test-key-123"

type upstreamReply struct {
	status int
	body   string
}

// upstream answers by the resource id at the end of the request path
type upstream map[string]upstreamReply

func (u upstream) Do(req *http.Request) (*http.Response, error) {
	reply, ok := u[path.Base(req.URL.Path)]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &http.Response{
		StatusCode: reply.status,
		Body:       io.NopCloser(strings.NewReader(reply.body)),
		Header:     make(http.Header),
	}, nil
}

func newTestServer(t *testing.T, up upstream) *httptest.Server {
	t.Helper()
	return newTestServerWithLogger(t, up, logger.Discard())
}

func newTestServerWithLogger(t *testing.T, up upstream, log *logger.Logger) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	gw := datagov.New("token", datagov.WithTransport(up))
	svc, err := service.NewService(gw, nil, logger.Discard(), service.NewMetrics(reg))
	require.NoError(t, err)

	router := NewRouter(
		NewHandlers(svc),
		NewAuthMiddleware([]config.APIKey{{Name: "tests", Key: testKey}}),
		NewLoggingMiddleware(log),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, target string, authorized bool) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+target, nil)
	require.NoError(t, err)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func errorMessage(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	msg, _ := e["message"].(string)
	return msg
}

const trafficBody = `[
	{"deviceid": "MS116", "countedcars": 38040, "appprocesstime": "2022-07-23T00:00:00Z", "road_name": "Λ. ΚΗΦΙΣΟΥ", "road_info": null, "average_speed": 98.5}
]`

const ridershipBody = `[
	{"dv_validations": 5234, "dv_agency": "001", "dv_platenum_station": "UKN", "dv_route": null, "routes_per_hour": null, "load_dt": "2022-07-22T05:48:44Z", "date_hour": "2022-07-22T00:00:00Z"}
]`

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := get(t, srv, "/health", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "missing authorization header"},
		{"wrong scheme", "Token " + testKey, "invalid authorization format, expected 'Bearer <token>'"},
		{"unknown key", "Bearer nope", "invalid api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/v1/resources", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.want, errorMessage(body))
		})
	}
}

func TestListResources(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := get(t, srv, "/v1/resources", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["resources"], 2)

	_, body = get(t, srv, "/v1/resources?search=oasa", true)
	resources := body["resources"].([]any)
	require.Len(t, resources, 1)
	assert.Equal(t, "oasa_ridership", resources[0].(map[string]any)["id"])
}

func TestQueryResource(t *testing.T) {
	srv := newTestServer(t, upstream{"road_traffic_attica": {http.StatusOK, trafficBody}})

	resp, body := get(t, srv, "/v1/resources/road_traffic_attica/records?date_from=2022-07-23&date_to=2022-07-23", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "road_traffic_attica", body["resource"])
	assert.Equal(t, "2022-07-23", body["date_from"])
	assert.Equal(t, "2022-07-23", body["date_to"])
	assert.EqualValues(t, 1, body["count"])

	records := body["records"].([]any)
	require.Len(t, records, 1)
	record := records[0].(map[string]any)
	assert.Equal(t, "MS116", record["deviceid"])
	assert.Equal(t, "2022-07-23T00:00:00Z", record["appprocesstime"])
	assert.Nil(t, record["road_info"])
}

func TestQueryResource_Errors(t *testing.T) {
	srv := newTestServer(t, upstream{
		"road_traffic_attica": {http.StatusUnauthorized, `{"detail": "Invalid token."}`},
		"oasa_ridership":      {http.StatusOK, `[{"dv_validations": "many"}]`},
	})

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown resource", "/v1/resources/bikes/records?date_from=2022-07-23", http.StatusNotFound},
		{"missing date_from", "/v1/resources/oasa_ridership/records", http.StatusBadRequest},
		{"malformed date", "/v1/resources/oasa_ridership/records?date_from=23-07-2022", http.StatusBadRequest},
		{"inverted range", "/v1/resources/oasa_ridership/records?date_from=2022-07-23&date_to=2022-07-22", http.StatusBadRequest},
		{"upstream unauthorized", "/v1/resources/road_traffic_attica/records?date_from=2022-07-23", http.StatusBadGateway},
		{"malformed upstream record", "/v1/resources/oasa_ridership/records?date_from=2022-07-23", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv, tt.target, true)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(body))
		})
	}
}

func TestQueryResource_UpstreamUnauthorizedIsNotClientUnauthorized(t *testing.T) {
	srv := newTestServer(t, upstream{"road_traffic_attica": {http.StatusUnauthorized, `{"detail": "Invalid token."}`}})

	resp, body := get(t, srv, "/v1/resources/road_traffic_attica/records?date_from=2022-07-23", true)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream authorization failed", errorMessage(body))

	resp, body = get(t, srv, "/v1/resources/road_traffic_attica/records?date_from=2022-07-23", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing authorization header", errorMessage(body))
}

func TestQueryResource_UpstreamUnavailable(t *testing.T) {
	srv := newTestServer(t, upstream{})

	resp, body := get(t, srv, "/v1/resources/road_traffic_attica/records?date_from=2022-07-23", true)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream unavailable", errorMessage(body))
}

func TestQueryMany(t *testing.T) {
	srv := newTestServer(t, upstream{
		"road_traffic_attica": {http.StatusOK, trafficBody},
		"oasa_ridership":      {http.StatusOK, ridershipBody},
	})

	resp, body := get(t, srv, "/v1/records?resource=road_traffic_attica&resource=oasa_ridership&date_from=2022-07-22&date_to=2022-07-23", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "oasa_ridership", results[0].(map[string]any)["resource"])
	assert.Equal(t, "road_traffic_attica", results[1].(map[string]any)["resource"])
}

func TestQueryMany_RequiresResource(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := get(t, srv, "/v1/records?date_from=2022-07-22", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, upstream{"road_traffic_attica": {http.StatusOK, trafficBody}})

	get(t, srv, "/v1/resources/road_traffic_attica/records?date_from=2022-07-23", true)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `datagov_fetch_total{outcome="ok",resource="road_traffic_attica"} 1`)
}

// lockedBuffer collects log output written from server goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAuthenticatedLogsCarryKeyName(t *testing.T) {
	var out lockedBuffer
	srv := newTestServerWithLogger(t, upstream{}, logger.NewWithWriter(&out, "debug", "text"))

	resp, _ := get(t, srv, "/v1/resources/road_traffic_attica/records?date_from=2022-07-23", true)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var fetchFailed string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "service: fetch failed") {
			fetchFailed = line
		}
	}
	require.NotEmpty(t, fetchFailed)
	assert.Contains(t, fetchFailed, "api_key_name=tests")
	assert.Contains(t, fetchFailed, "request_id=")
}
