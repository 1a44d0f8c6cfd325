package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/noah-isme/adminportal/internal/jobs"
	"github.com/noah-isme/adminportal/internal/platform/kv"
)

func newSyncFixture(t *testing.T) (*StoreSyncJob, *kv.FileStore, *miniredis.Miniredis) {
	t.Helper()
	source, err := kv.NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	job := NewStoreSyncJob(source, kv.NewRedisStore(client, "portal:"), nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	return job, source, mr
}

func TestStoreSyncCopiesDocuments(t *testing.T) {
	job, source, mr := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, source.Put(ctx, "users", map[string]any{"user_1": map[string]string{"role": "emp"}}))
	require.NoError(t, source.Put(ctx, "blog", map[string]string{"title": "Hello", "content": "World"}))

	result, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Copied)
	assert.ElementsMatch(t, []string{"audiences", "settings", "categories"}, result.Missing)

	raw, err := mr.Get("portal:blog")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Hello","content":"World"}`, raw)
	assert.True(t, mr.Exists("portal:users"))
	assert.False(t, mr.Exists("portal:settings"))
}

func TestStoreSyncHandleSelectsKeys(t *testing.T) {
	job, source, mr := newSyncFixture(t)
	ctx := context.Background()
	require.NoError(t, source.Put(ctx, "blog", map[string]string{"title": "a"}))
	require.NoError(t, source.Put(ctx, "settings", map[string]string{"theme": "dark"}))

	task, err := NewStoreSyncTask("settings")
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))

	assert.True(t, mr.Exists("portal:settings"))
	assert.False(t, mr.Exists("portal:blog"))
}

func TestStoreSyncRejectsBadPayload(t *testing.T) {
	job, _, _ := newSyncFixture(t)
	err := job.Handle(context.Background(), asynq.NewTask(TaskStoreSync, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type failingStore struct{ kv.Store }

func (failingStore) Get(context.Context, string, any) error { return errors.New("disk unreadable") }

func TestStoreSyncPropagatesSourceFaults(t *testing.T) {
	job, _, mr := newSyncFixture(t)
	job.Source = failingStore{}

	_, err := job.Run(context.Background(), "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read users")
	assert.False(t, mr.Exists("portal:users"))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, nil).
		health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":0,"failed":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil).
		health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
