package content

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminportal/internal/platform/kv"
	"github.com/noah-isme/adminportal/internal/rbac"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(kv.NewRedisStore(client, "test:"))
}

func TestBlogDefaultsAndPartialUpdate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	blog, err := s.Blog(ctx)
	require.NoError(t, err)
	assert.Equal(t, Blog{}, blog)

	title := "Welcome"
	blog, err = s.UpdateBlog(ctx, BlogUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, Blog{Title: "Welcome"}, blog)

	body := "Hello"
	blog, err = s.UpdateBlog(ctx, BlogUpdate{Content: &body})
	require.NoError(t, err)
	assert.Equal(t, Blog{Title: "Welcome", Content: "Hello"}, blog)
}

func TestSettingsMergeAndValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)

	settings, err = s.UpdateSettings(ctx, Settings{"footer": "(c) portal", SettingAllowSignups: true})
	require.NoError(t, err)
	assert.Equal(t, "default", settings[SettingTheme])
	assert.Equal(t, true, settings[SettingAllowSignups])
	assert.Equal(t, "(c) portal", settings["footer"])

	_, err = s.UpdateSettings(ctx, Settings{SettingTheme: 3.0})
	assert.ErrorIs(t, err, ErrInvalidTheme)
	_, err = s.UpdateSettings(ctx, Settings{SettingAllowSignups: "yes"})
	assert.ErrorIs(t, err, ErrInvalidAllowSignups)

	settings, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "(c) portal", settings["footer"])
}

type roleTokens map[string]rbac.Principal

func (r roleTokens) Verify(_ context.Context, token string) (string, error) {
	if _, ok := r[token]; ok {
		return token, nil
	}
	return "", errors.New("unknown token")
}

func (r roleTokens) Lookup(_ context.Context, id string) (rbac.Principal, error) {
	p, ok := r[id]
	if !ok {
		return rbac.Principal{}, rbac.ErrNoRecord
	}
	return p, nil
}

func TestContentRoutes(t *testing.T) {
	principals := roleTokens{
		"admin": {ID: "admin", Role: rbac.RoleAdmin, Status: rbac.StatusActive},
		"emp":   {ID: "emp", Role: rbac.RoleEmp, Status: rbac.StatusActive},
	}
	mw := rbac.Middleware{Resolver: rbac.NewResolver(principals, principals)}
	h := NewHandler(nil, newTestService(t), mw)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Route("/blog", h.MountBlogRoutes)
		r.Route("/settings", h.MountSettingsRoutes)
	})

	do := func(method, path, token string, body any) (int, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		out := map[string]any{}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
		return res.Code, out
	}

	code, _ := do(http.MethodGet, "/api/blog/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := do(http.MethodGet, "/api/blog/", "emp", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", resp["data"].(map[string]any)["title"])

	code, _ = do(http.MethodPut, "/api/blog/", "emp", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = do(http.MethodPut, "/api/blog/", "admin", map[string]any{"title": "News"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "News", resp["data"].(map[string]any)["title"])

	code, resp = do(http.MethodGet, "/api/settings/", "emp", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "default", resp["data"].(map[string]any)["theme"])

	code, _ = do(http.MethodPut, "/api/settings/", "emp", map[string]any{"theme": "dark"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(http.MethodPut, "/api/settings/", "admin", map[string]any{"theme": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(http.MethodPut, "/api/settings/", "admin", map[string]any{"theme": "dark"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dark", resp["data"].(map[string]any)["theme"])
}
