package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/isiscnet/pkg/catalog"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/store"
	"github.com/ssargent/isiscnet/pkg/table"
)

const testAPIKey = "test-key"

type testServer struct {
	handler  http.Handler
	catalog  *catalog.Catalog
	registry *prometheus.Registry
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	reg := prometheus.NewRegistry()
	server := NewServer(cat, ServerConfig{APIKey: testAPIKey}, NewMetrics(reg), nil)
	return &testServer{handler: NewRouter(server, reg), catalog: cat, registry: reg}
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, data interface{}) {
	t.Helper()
	resp := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, "error: %s", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func testFrame(t *testing.T) *table.Frame {
	t.Helper()
	s, err := schema.Lookup(schema.V2)
	require.NoError(t, err)
	m := table.NewMapper(s)
	points := []schema.Point{
		{
			Fields: schema.Record{"id": "tie_2", "type": int32(2), "referenceIndex": int32(0)},
			Measures: []schema.Record{
				{"serialnumber": "IMG_A", "sample": 10.0, "line": 20.0},
				{"serialnumber": "IMG_B", "sample": 11.0, "line": 21.0},
			},
		},
		{
			Fields:   schema.Record{"id": "tie_1", "type": int32(2), "referenceIndex": int32(0)},
			Measures: []schema.Record{{"serialnumber": "IMG_A", "sample": 1.0, "line": 2.0}},
		},
		{
			Fields:   schema.Record{"id": "gcp_1", "type": int32(3), "referenceIndex": int32(0)},
			Measures: []schema.Record{{"serialnumber": "IMG_C", "sample": 3.0, "line": 4.0}},
		},
	}
	return &table.Frame{Version: schema.V2, Columns: m.Columns(), Rows: m.Flatten(points)}
}

func networkFile(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "net.bin")
	_, err := store.WriteNetwork(testFrame(t), path, store.WriteOptions{NetworkID: "api", TargetName: "Mars"}, nil)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestServer_Health(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	decodeData(t, w, &data)
	assert.Equal(t, "healthy", data["status"])
}

func TestServer_RequiresAPIKey(t *testing.T) {
	ts := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/networks", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServer_IngestAndQuery(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/v1/networks?source=mars.net", networkFile(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entry catalog.Entry
	decodeData(t, w, &entry)
	assert.Equal(t, "mars.net", entry.Source)
	assert.Equal(t, 3, entry.Points)
	assert.Equal(t, 4, entry.Measures)
	assert.Equal(t, "Mars", entry.Info.TargetName)

	t.Run("list networks", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/networks", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var entries []catalog.Entry
		decodeData(t, w, &entries)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.Key, entries[0].Key)
	})

	t.Run("get network", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/networks/"+entry.Key, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got catalog.Entry
		decodeData(t, w, &got)
		assert.Equal(t, entry.Key, got.Key)
		assert.Equal(t, "api", got.Info.NetworkID)
	})

	t.Run("list points", func(t *testing.T) {
		tests := []struct {
			query     string
			wantTotal int
			wantIDs   []string
		}{
			{query: "", wantTotal: 3, wantIDs: []string{"gcp_1", "tie_1", "tie_2"}},
			{query: "?prefix=tie_", wantTotal: 2, wantIDs: []string{"tie_1", "tie_2"}},
			{query: "?offset=1&limit=1", wantTotal: 3, wantIDs: []string{"tie_1"}},
			{query: "?offset=10", wantTotal: 3, wantIDs: []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.query, func(t *testing.T) {
				w := ts.do(t, "GET", "/api/v1/networks/"+entry.Key+"/points"+tt.query, nil)
				require.Equal(t, http.StatusOK, w.Code)
				var list PointListResponse
				decodeData(t, w, &list)
				assert.Equal(t, tt.wantTotal, list.Total)
				assert.Equal(t, tt.wantIDs, list.IDs)
			})
		}
	})

	t.Run("bad paging", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/networks/"+entry.Key+"/points?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get point", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/networks/"+entry.Key+"/points/tie_2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var p PointResponse
		decodeData(t, w, &p)
		assert.Equal(t, "tie_2", p.ID)
		require.Len(t, p.Measures, 2)
		assert.Equal(t, "IMG_B", p.Measures[1]["serialnumber"])
		assert.Equal(t, 11.0, p.Measures[1]["sample"])
	})

	t.Run("missing point", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/networks/"+entry.Key+"/points/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete network", func(t *testing.T) {
		w := ts.do(t, "DELETE", "/api/v1/networks/"+entry.Key, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, "GET", "/api/v1/networks/"+entry.Key, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_IngestErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		maxUpload  int64
		wantStatus int
	}{
		{name: "not a network", body: []byte("hello"), wantStatus: http.StatusBadRequest},
		{name: "empty body", body: nil, wantStatus: http.StatusBadRequest},
		{name: "too large", body: bytes.Repeat([]byte{'x'}, 64), maxUpload: 16, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			if tt.maxUpload > 0 {
				reg := prometheus.NewRegistry()
				server := NewServer(ts.catalog, ServerConfig{APIKey: testAPIKey, MaxUploadBytes: tt.maxUpload}, NewMetrics(reg), nil)
				ts.handler = NewRouter(server, reg)
			}
			w := ts.do(t, "POST", "/api/v1/networks", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

// failingCatalog fails every call with err.
type failingCatalog struct {
	Catalog
	err error
}

func (f failingCatalog) Networks() ([]catalog.Entry, error) { return nil, f.err }

func TestServer_CatalogFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	server := NewServer(failingCatalog{err: errors.New("disk gone")}, ServerConfig{APIKey: testAPIKey}, NewMetrics(reg), nil)
	ts := &testServer{handler: NewRouter(server, reg), registry: reg}

	w := ts.do(t, "GET", "/api/v1/networks", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk gone")
}

func TestServer_Metrics(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, "GET", "/api/v1/health", nil)
	ts.do(t, "GET", "/api/v1/networks", nil)
	ts.do(t, "GET", "/api/v1/networks/missing-a", nil)
	ts.do(t, "GET", "/api/v1/networks/missing-b", nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	for _, name := range []string{
		"cnet_http_requests_total",
		"cnet_catalog_operations_total",
		"cnet_health_checks_total",
		"cnet_auth_requests_total",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
	assert.Contains(t, body, `cnet_catalog_operations_total{operation="networks",status="success"} 1`)
	assert.Contains(t, body, `cnet_catalog_operations_total{operation="network",status="error"} 2`)
	assert.Contains(t, body, `cnet_http_requests_total{method="GET",route="/api/v1/networks/{key}",status_code="404"} 2`)
	assert.Contains(t, body, `cnet_auth_requests_total{status="success"} 4`)
}

func TestStartServer_RequiresAPIKey(t *testing.T) {
	err := StartServer(context.Background(), nil, ServerConfig{}, nil)
	assert.Error(t, err)
}

func TestServer_Swagger(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		target      string
		contentType string
		contains    []string
	}{
		{"/swagger/index.html", "text/html", []string{"swagger-ui", "/swagger/swagger.json"}},
		{"/swagger/swagger.json", "application/json", []string{`"basePath": "/api/v1"`, `"/networks/{key}/points/{pointID}"`, "X-API-Key"}},
		{"/swagger/swagger.yaml", "application/yaml", []string{"basePath: /api/v1", "/networks/{key}"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			// No API key: the documentation is public.
			req := httptest.NewRequest("GET", tt.target, nil)
			w := httptest.NewRecorder()
			ts.handler.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			for _, s := range tt.contains {
				assert.Contains(t, w.Body.String(), s)
			}
		})
	}

	t.Run("unknown document", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/swagger/other.txt", nil)
		w := httptest.NewRecorder()
		ts.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("json is valid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/swagger/swagger.json", nil)
		w := httptest.NewRecorder()
		ts.handler.ServeHTTP(w, req)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "cnet catalog API", doc["info"].(map[string]any)["title"])
	})
}
