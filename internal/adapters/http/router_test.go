package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/studio/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/studio/internal/adapters/files"
	"github.com/atvirokodosprendimai/studio/internal/application"
	"github.com/atvirokodosprendimai/studio/internal/bridge"
	"github.com/atvirokodosprendimai/studio/internal/catalog"
	"github.com/atvirokodosprendimai/studio/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dataDir := t.TempDir()
	store, err := sqlite.OpenStore(context.Background(), dataDir, sqlite.StoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	attachments, err := files.NewAttachments(dataDir)
	require.NoError(t, err)

	svc := application.NewStudioService(application.Dependencies{
		Repo:        sqlite.NewStudioRepository(store.DB()),
		Snapshots:   store,
		Attachments: attachments,
		Catalog:     catalog.NewFolder(filepath.Join(dataDir, "services")),
	})
	ops := metrics.NewOperations()
	return NewRouter(bridge.NewTable(svc, bridge.WithObserver(ops)), ops.Handler())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListClients(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/clients.create", `{"name":"Acme"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/clients.list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var clients []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "unpaid", clients[0]["payment_status"])
}

func TestLoginOutcomes(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/auth.login", `{"email":"admin@local","password":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok bridge.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.OK)
	require.NotNil(t, ok.User)
	assert.Equal(t, "admin", ok.User.Role)

	rec = do(t, h, http.MethodPost, "/api/auth.login", `{"email":"admin@local","password":"bad"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":false}`, rec.Body.String())
}

func TestErrorStatuses(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/clients.create", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = do(t, h, http.MethodPost, "/api/clients.delete", `{"clientId":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users.create", `{"email":"admin@local","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/clients.archive", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown operation")

	rec = do(t, h, http.MethodGet, "/api/clients.list", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOpsHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/ops", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ops struct {
		Operations []string `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ops))
	assert.Contains(t, ops.Operations, bridge.OpBackupNow)

	do(t, h, http.MethodPost, "/api/analytics.summary", "")
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `studio_operations_total{operation="analytics.summary",outcome="ok"} 1`)
}
