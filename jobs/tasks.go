package jobs

import (
	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStoreSync copies portal documents from the file store into Redis.
	TaskStoreSync = "store:sync"
)

// SyncedKeys are the documents the portal keeps in its store.
var SyncedKeys = []string{"audiences", "users", "blog", "settings", "categories"}

// StoreSyncPayload selects which keys to copy. Empty means SyncedKeys.
type StoreSyncPayload struct {
	Keys []string `json:"keys,omitempty"`
}

// NewStoreSyncTask constructs an Asynq task.
func NewStoreSyncTask(keys ...string) (*asynq.Task, error) {
	data, err := json.Marshal(StoreSyncPayload{Keys: keys})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStoreSync, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
