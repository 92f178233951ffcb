package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goanalyst/adapters/excel"
	"goanalyst/adapters/store"
	"goanalyst/domain/dataset"
	"goanalyst/internal"
	"goanalyst/internal/analysis"
	"goanalyst/internal/config"
	"goanalyst/internal/errors"
	"goanalyst/internal/migration"
	"goanalyst/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	quiet := internal.NewLogger(internal.LogLevelError)

	cfg := config.Default()
	cfg.Server.GinMode = gin.TestMode
	analyzer, err := analysis.New(cfg.Engine.Analysis(quiet))
	require.NoError(t, err)

	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	srv, err := NewServer(Dependencies{
		Analyzer: analyzer,
		Models:   store.NewModelRepository(db),
		Config:   cfg,
		Logger:   quiet,
	})
	require.NoError(t, err)
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// upload posts ds as a CSV file and returns the dataset ID
func upload(t *testing.T, h http.Handler, name string, ds *dataset.Dataset) string {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("dataset", name)
	require.NoError(t, err)
	require.NoError(t, excel.WriteCSV(part, ds))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	id, _ := out["dataset_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `goanalyst_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "goanalyst_analysis_cache_hits_total")
}

func TestUploadDataset(t *testing.T) {
	h := newTestServer(t)
	sales, err := testkit.GenerateDailySales(testkit.DefaultDailySalesConfig())
	require.NoError(t, err)

	id := upload(t, h, "sales.csv", sales)
	assert.Equal(t, sales.Hash().String(), id)

	rec := doJSON(t, h, http.MethodGet, "/v1/datasets/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]interface{})
	assert.EqualValues(t, sales.Len(), summary["rows"])

	rec = doJSON(t, h, http.MethodGet, "/v1/datasets/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, decode(t, rec)["code"])

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysesWithInlineRecords(t *testing.T) {
	h := newTestServer(t)
	records := []map[string]interface{}{
		{"x": 1, "y": 2, "group": "a"},
		{"x": 2, "y": 4, "group": "a"},
		{"x": 3, "y": 6, "group": "b"},
	}

	rec := doJSON(t, h, http.MethodPost, "/v1/analyses/regression", gin.H{"records": records, "x": "x", "y": "y"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.InDelta(t, 2.0, out["slope"], 1e-9)
	assert.InDelta(t, 0.0, out["intercept"], 1e-9)
	assert.InDelta(t, 1.0, out["r_squared"], 1e-9)

	rec = doJSON(t, h, http.MethodPost, "/v1/analyses/describe", gin.H{"records": records, "column": "x"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/v1/analyses/describe", gin.H{"records": records, "column": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/analyses/pca", gin.H{"records": records, "columns": []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInsufficientColumns, decode(t, rec)["code"])

	rec = doJSON(t, h, http.MethodPost, "/v1/analyses/astrology", gin.H{"records": records})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/analyses/summary", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no dataset given")
}

func TestInsights(t *testing.T) {
	h := newTestServer(t)
	sales, err := testkit.GenerateDailySales(testkit.DefaultDailySalesConfig())
	require.NoError(t, err)
	id := upload(t, h, "sales.csv", sales)

	rec := doJSON(t, h, http.MethodPost, "/v1/insights?format=markdown", gin.H{"dataset_id": id, "target": "sales", "title": "Daily sales"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Daily sales"))

	rec = doJSON(t, h, http.MethodPost, "/v1/insights", gin.H{"dataset_id": id, "target": "sales"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "<h2")
}

func TestModelLifecycle(t *testing.T) {
	h := newTestServer(t)
	shopping := testkit.DefaultShoppingConfig()
	shopping.OrderCount = 150
	orders, err := testkit.NewShoppingDataGenerator(shopping).GenerateOrders()
	require.NoError(t, err)
	id := upload(t, h, "orders.csv", orders)

	rec := doJSON(t, h, http.MethodPost, "/v1/problem-type", gin.H{"dataset_id": id, "target": testkit.ColOrderValue})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "regression", decode(t, rec)["problem_type"])

	rec = doJSON(t, h, http.MethodPost, "/v1/models", gin.H{"dataset_id": id})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "target is required")

	rec = doJSON(t, h, http.MethodPost, "/v1/models", gin.H{
		"dataset_id": id,
		"target":     testkit.ColOrderValue,
		"features":   []string{testkit.ColPagesViewed, testkit.ColCartValue, testkit.ColTenureDays},
		"algorithms": []string{"linear"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	model := decode(t, rec)
	modelID := model["id"].(string)
	assert.Equal(t, "linear", model["algorithm"])

	rec = doJSON(t, h, http.MethodPost, "/v1/models/"+modelID+"/predict", gin.H{"values": gin.H{
		testkit.ColPagesViewed: 5, testkit.ColCartValue: 60, testkit.ColTenureDays: 100,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["explanation"])

	rec = doJSON(t, h, http.MethodGet, "/v1/models/"+modelID+"/export?format=yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "algorithm: linear")

	rec = doJSON(t, h, http.MethodGet, "/v1/models/"+modelID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	rec = doJSON(t, h, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = doJSON(t, h, http.MethodDelete, "/v1/models/"+modelID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/v1/models/"+modelID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/models/import", strings.NewReader(exported))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, modelID, decode(t, rec)["id"])

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(exported), &doc))
	doc["id"] = "foo"
	renamed, err := json.Marshal(doc)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/v1/models/import", bytes.NewReader(renamed))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	freshID := decode(t, rec)["id"].(string)
	assert.NotEqual(t, "foo", freshID)
	assert.NotEqual(t, modelID, freshID)
	rec = doJSON(t, h, http.MethodGet, "/v1/models/"+freshID, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "an imported model is reachable by the ID it was given")

	rec = doJSON(t, h, http.MethodGet, "/v1/models/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Contains(t, rec.Body.String(), `goanalyst_automl_trainings_total{algorithm="linear",problem_type="regression"} 1`)
}
