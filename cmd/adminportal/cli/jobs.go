package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/adminportal/jobs"
)

// Enqueuer submits store-sync tasks.
type Enqueuer interface {
	EnqueueStoreSync(ctx context.Context, keys ...string) (*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	enqueuer  Enqueuer
	inspector jobs.QueueInspector
}

// NewJobsCLI builds the CLI helpers.
func NewJobsCLI(enqueuer Enqueuer, inspector jobs.QueueInspector) *JobsCLI {
	return &JobsCLI{enqueuer: enqueuer, inspector: inspector}
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, keys []string) (*asynq.TaskInfo, error) {
	if c == nil || c.enqueuer == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskStoreSync:
		for _, key := range keys {
			if !slices.Contains(jobs.SyncedKeys, key) {
				return nil, fmt.Errorf("jobs cli: unknown store key %q", key)
			}
		}
		return c.enqueuer.EnqueueStoreSync(ctx, keys...)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Failed    int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Failed = info.Failed
	}
	return stats, nil
}

// Execute runs a jobs subcommand: "sync [key...]" or "queue".
func (c *JobsCLI) Execute(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: jobs sync [key...] | jobs queue")
	}
	switch args[0] {
	case "sync":
		info, err := c.Trigger(ctx, jobs.TaskStoreSync, args[1:])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return err
	case "queue":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Failed)
		return err
	default:
		return fmt.Errorf("jobs cli: unknown command %q", args[0])
	}
}
