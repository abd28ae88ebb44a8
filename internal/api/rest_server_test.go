package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/extrudegen/internal/config"
	"github.com/annel0/extrudegen/internal/dataset"
	"github.com/annel0/extrudegen/internal/program"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, withStore bool) *RestServer {
	t.Helper()
	cfg := config.Default()
	gen := dataset.NewGenerator(dataset.MeshKernelFactory(cfg.Kernel.Snap), dataset.OptionsFromConfig(cfg.Generator), nil)

	var store *dataset.Store
	if withStore {
		var err error
		store, err = dataset.OpenStore(t.TempDir(), "zstd")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}
	return NewRestServer(Config{Generator: gen, Store: store, Registry: prometheus.NewRegistry()})
}

func do(t *testing.T, rs *RestServer, method, path string, body []byte) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)

	var resp response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	rs := newTestServer(t, false)
	code, _ := do(t, rs, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestGenerateAndFetch(t *testing.T) {
	rs := newTestServer(t, true)

	code, resp := do(t, rs, http.MethodPost, "/api/samples?seed=7", nil)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var sample dataset.Sample
	require.NoError(t, json.Unmarshal(resp.Data, &sample))
	assert.Equal(t, int64(7), sample.Seed)
	assert.Len(t, sample.Trace.Steps(), len(sample.Program.Steps))

	code, resp = do(t, rs, http.MethodGet, "/api/samples/"+sample.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	var fetched dataset.Sample
	require.NoError(t, json.Unmarshal(resp.Data, &fetched))
	assert.Equal(t, sample.Trace, fetched.Trace)

	code, resp = do(t, rs, http.MethodGet, "/api/samples?limit=10", nil)
	require.Equal(t, http.StatusOK, code)
	var list []dataset.Sample
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Len(t, list, 1)

	code, resp = do(t, rs, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.JSONEq(t, "1", string(stats["samples_stored"]))
	assert.Contains(t, stats, "server")
}

func TestBadRequests(t *testing.T) {
	rs := newTestServer(t, true)

	code, _ := do(t, rs, http.MethodPost, "/api/samples?seed=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, rs, http.MethodGet, "/api/samples?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := do(t, rs, http.MethodGet, "/api/samples/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
}

func TestWithoutStore(t *testing.T) {
	rs := newTestServer(t, false)

	code, _ := do(t, rs, http.MethodGet, "/api/samples", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = do(t, rs, http.MethodPost, "/api/samples?seed=1", nil)
	assert.Equal(t, http.StatusCreated, code, "Генерация работает и без хранилища")
}

func TestCompile(t *testing.T) {
	rs := newTestServer(t, false)
	_, resp := do(t, rs, http.MethodPost, "/api/samples?seed=3", nil)
	var sample dataset.Sample
	require.NoError(t, json.Unmarshal(resp.Data, &sample))

	body, err := json.Marshal(CompileRequest{Program: sample.Program, Seed: 3})
	require.NoError(t, err)
	code, resp := do(t, rs, http.MethodPost, "/api/compile", body)
	require.Equal(t, http.StatusOK, code, resp.Message)

	var out struct {
		Trace program.Trace `json:"trace"`
		Steps int           `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, len(sample.Program.Steps), out.Steps)
}

func TestCompile_Invalid(t *testing.T) {
	rs := newTestServer(t, false)

	code, _ := do(t, rs, http.MethodPost, "/api/compile", []byte(`{"program":{"steps":[]}}`))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, rs, http.MethodPost, "/api/compile", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, rs, http.MethodPost, "/api/compile",
		[]byte(`{"program":{"steps":[{"displacement":[0,0,0],"union":true,"loop":[[0,0,0],[1,0,0],[0,1,0]]}]}}`))
	assert.Equal(t, http.StatusUnprocessableEntity, code, "Нулевое смещение отклоняется ядром")
}

func TestMetricsEndpoint(t *testing.T) {
	rs := newTestServer(t, false)
	do(t, rs, http.MethodGet, "/api/health", nil)

	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "extrudegen_api_http_request_duration_seconds")
}
