package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/noah-isme/adminportal/internal/jobs"
	"github.com/noah-isme/adminportal/internal/platform/kv"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StoreSyncJob mirrors documents from one store into another.
type StoreSyncJob struct {
	Source      kv.Store
	Destination kv.Store
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	// Label names the destination in metrics.
	Label string
	// Parallel bounds concurrent key copies; zero means 4.
	Parallel int
}

// NewStoreSyncJob wires dependencies for the sync handler.
func NewStoreSyncJob(source, destination kv.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *StoreSyncJob {
	return &StoreSyncJob{Source: source, Destination: destination, Logger: logger, Metrics: metrics, Label: "redis"}
}

// SyncResult reports the outcome of one sync run.
type SyncResult struct {
	Copied  int
	Missing []string
}

// Handle processes TaskStoreSync tasks.
func (j *StoreSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("store sync: handler not configured")
	}
	var payload StoreSyncPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.Keys...)
	return err
}

// Run copies keys (SyncedKeys when none are given). Keys absent from the
// source are skipped and reported.
func (j *StoreSyncJob) Run(ctx context.Context, keys ...string) (result SyncResult, resultErr error) {
	if j.Source == nil || j.Destination == nil {
		return SyncResult{}, errors.New("store sync: stores not configured")
	}
	if len(keys) == 0 {
		keys = SyncedKeys
	}
	tracker := j.metrics().Track(TaskStoreSync)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("keys", len(keys)))
	logger.Info("starting store sync")

	parallel := j.Parallel
	if parallel <= 0 {
		parallel = 4
	}
	var copied atomic.Int64
	missing := make([]bool, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, key := range keys {
		g.Go(func() error {
			var doc json.RawMessage
			if err := j.Source.Get(gctx, key, &doc); err != nil {
				if errors.Is(err, kv.ErrNotFound) {
					missing[i] = true
					return nil
				}
				return fmt.Errorf("read %s: %w", key, err)
			}
			if err := j.Destination.Put(gctx, key, doc); err != nil {
				return fmt.Errorf("write %s: %w", key, err)
			}
			copied.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("store sync failed", slog.Any("error", err))
		return SyncResult{}, err
	}

	result.Copied = int(copied.Load())
	for i, gone := range missing {
		if gone {
			result.Missing = append(result.Missing, keys[i])
		}
	}
	j.metrics().AddSynced(j.Label, result.Copied)
	logger.Info("store sync complete", slog.Int("copied", result.Copied), slog.Any("missing", result.Missing))
	return result, nil
}

func (j *StoreSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StoreSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
