package perf

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/noah-isme/adminportal/internal/jobs"
	"github.com/noah-isme/adminportal/internal/platform/kv"
	"github.com/noah-isme/adminportal/jobs"
)

func newSyncJob(t testing.TB, reg prometheus.Registerer) (*jobs.StoreSyncJob, *kv.FileStore) {
	t.Helper()
	source, err := kv.NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	job := jobs.NewStoreSyncJob(source, kv.NewRedisStore(client, "perf:"), nil, jobmetrics.NewMetrics(reg))
	return job, source
}

func TestStoreSyncThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	job, source := newSyncJob(t, reg)
	ctx := context.Background()

	users := make(map[string]map[string]string, 500)
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("user_%04d", i)
		users[id] = map[string]string{"user_id": id, "role": "emp"}
	}
	if err := source.Put(ctx, "users", users); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	if err := source.Put(ctx, "settings", map[string]any{"theme": "default"}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	for i := 0; i < 20; i++ {
		result, err := job.Run(ctx)
		if err != nil {
			t.Fatalf("sync run %d: %v", i, err)
		}
		if result.Copied != 2 {
			t.Fatalf("sync run %d copied %d keys, want 2", i, result.Copied)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "adminportal_jobs_total", map[string]string{"job": jobs.TaskStoreSync, "status": "success"})
	if success != 20 {
		t.Fatalf("recorded %v successful syncs, want 20", success)
	}
	synced := metricValue(t, families, "adminportal_store_synced_keys_total", map[string]string{"destination": "redis"})
	if synced != 40 {
		t.Fatalf("recorded %v synced keys, want 40", synced)
	}

	mean := histogramMean(t, families, "adminportal_job_duration_seconds", map[string]string{"job": jobs.TaskStoreSync})
	if mean > 0.5 {
		t.Fatalf("store sync duration above budget: %f", mean)
	}
}

func BenchmarkStoreSync(b *testing.B) {
	job, source := newSyncJob(b, prometheus.NewRegistry())
	ctx := context.Background()
	for _, key := range jobs.SyncedKeys {
		if err := source.Put(ctx, key, map[string]string{"key": key}); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := job.Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, want := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = lp.GetValue() == want
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
