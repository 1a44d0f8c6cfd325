package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/adminportal/internal/observability"
	"github.com/noah-isme/adminportal/internal/platform/kv"
	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
)

type portalFixture struct {
	handler http.Handler
	portal  *Portal
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	store, err := kv.NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	cfg := &Config{
		AppEnv:             "test",
		AppRequestTimeout:  5 * time.Second,
		JWTSecret:          "router-secret",
		JWTIssuer:          "adminportal",
		JWTAccessTTL:       time.Hour,
		JWTRefreshTTL:      24 * time.Hour,
		RateLimitPerMinute: 1000,
	}
	portal := NewPortal(PortalParams{
		Config:   cfg,
		Logger:   NewLogger(cfg),
		Store:    store,
		Metrics:  observability.NewMetrics(),
		HashCost: bcrypt.MinCost,
	})
	return &portalFixture{handler: portal.Handler(), portal: portal}
}

func (f *portalFixture) seed(t *testing.T, role rbac.Role, name string) users.SafeUser {
	t.Helper()
	u, err := f.portal.Users.Create(context.Background(), role, users.Registration{
		Username: name, Email: name + "@example.com", Password: "secret123",
	}, "")
	require.NoError(t, err)
	return u
}

func (f *portalFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	return res.Code, out
}

func (f *portalFixture) login(t *testing.T, username string) string {
	t.Helper()
	code, body := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "secret123"})
	require.Equal(t, http.StatusOK, code, body)
	return body["access_token"].(string)
}

func TestHealthAndFallbacks(t *testing.T) {
	f := newPortalFixture(t)

	code, body := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = f.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newPortalFixture(t)
	for _, path := range []string{"/api/users/", "/api/categories/", "/api/audiences/aud1", "/api/blog/", "/api/settings/", "/api/permissions/"} {
		code, body := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, string(rbac.KindUnauthenticated), body["type"], path)
	}
}

func TestEndToEndAuthorization(t *testing.T) {
	f := newPortalFixture(t)
	root := f.seed(t, rbac.RoleSuperAdmin, "root")
	superToken := f.login(t, "root")

	code, body := f.do(t, http.MethodGet, "/api/permissions/", superToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(rbac.RoleSuperAdmin), body["role"])

	code, _ = f.do(t, http.MethodPost, "/api/users/admin", superToken, map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, code)
	adminToken := f.login(t, "alice")

	code, body = f.do(t, http.MethodPost, "/api/users/admin", adminToken, map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, string(rbac.KindInsufficientRole), body["type"])

	code, body = f.do(t, http.MethodDelete, "/api/users/"+root.ID, superToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, string(rbac.KindSelfModificationDenied), body["type"])

	code, body = f.do(t, http.MethodPut, "/api/settings/", adminToken, map[string]any{"theme": "dark"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dark", body["data"].(map[string]any)["theme"])

	code, _ = f.do(t, http.MethodPost, "/api/categories/", adminToken, map[string]any{"category_name": "Books"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = f.do(t, http.MethodPost, "/api/categories/", superToken, map[string]any{"category_name": "Books"})
	assert.Equal(t, http.StatusCreated, code)

	code, _ = f.do(t, http.MethodPost, "/api/audiences/", adminToken, map[string]any{
		"audience_id": "readers", "category_path": []string{"Books"},
	})
	assert.Equal(t, http.StatusCreated, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	metrics, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `adminportal_authz_denials_total{kind="insufficient_role"} 1`)
	assert.Contains(t, string(metrics), `adminportal_authz_denials_total{kind="self_modification_denied"} 1`)
}
