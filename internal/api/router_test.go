package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorhub/internal/events"
	"motorhub/internal/ingest"
	"motorhub/internal/jobs"
	"motorhub/internal/motor"
	"motorhub/pkg/database"
	"motorhub/pkg/models"
)

type sheet struct{}

func (sheet) Name() string { return "sheet" }

func (sheet) FetchAll(context.Context) ([]models.FeedRecord, error) {
	return []models.FeedRecord{
		{Source: "sheet", SourceID: "1", Description: "Mercury Verado 300 HP DTS", StockQty: 2},
		{Source: "sheet", SourceID: "2", Description: "SeaPro 200 HP EXLPT"},
	}, nil
}

func newRouter(t *testing.T) (*gin.Engine, *jobs.Runner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	hub := events.NewHub(zerolog.Nop())
	motors := motor.NewRepo(db)
	runner := &jobs.Runner{
		Aggregator: ingest.NewAggregator(zerolog.Nop(), sheet{}),
		Motors:     motors,
		Runs:       jobs.NewRunRepo(db),
		Events:     hub,
		Log:        zerolog.Nop(),
	}
	return NewRouter(Deps{DB: db, Motors: motors, Runner: runner, Hub: hub, Log: zerolog.Nop()}), runner
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sqlite3"`)

	w = do(r, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, false, body["sync_running"])
}

func TestSyncThenBrowse(t *testing.T) {
	r, runner := newRouter(t)

	w := do(r, http.MethodPost, "/sync/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	runner.Wait()

	w = do(r, http.MethodGet, "/motors?family=seapro", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int              `json:"total"`
		Items []models.MotorDB `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "SEAPRO-200HP-EFI-EXLPT", list.Items[0].ModelKey)

	w = do(r, http.MethodGet, "/motors/verado-300hp-efi-dts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stock_qty":2`)

	w = do(r, http.MethodPost, "/motors/parse", map[string]any{"description": "FourStroke 9.9 HP EFI ELH"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"model_key":"FOURSTROKE-9.9HP-EFI-ELH"`)

	w = do(r, http.MethodGet, "/sync/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
