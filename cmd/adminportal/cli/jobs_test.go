package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminportal/jobs"
)

type stubEnqueuer struct {
	keys [][]string
}

func (s *stubEnqueuer) EnqueueStoreSync(_ context.Context, keys ...string) (*asynq.TaskInfo, error) {
	s.keys = append(s.keys, keys)
	return &asynq.TaskInfo{ID: "task-1", Type: jobs.TaskStoreSync, Queue: jobs.QueueDefault}, nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestSyncCommandEnqueues(t *testing.T) {
	enq := &stubEnqueuer{}
	c := NewJobsCLI(enq, nil)
	var out bytes.Buffer

	require.NoError(t, c.Execute(context.Background(), []string{"sync", "users", "categories"}, &out))
	assert.Equal(t, [][]string{{"users", "categories"}}, enq.keys)
	assert.Contains(t, out.String(), "enqueued store:sync id=task-1")

	err := c.Execute(context.Background(), []string{"sync", "sessions"}, &out)
	assert.ErrorContains(t, err, "unknown store key")
	assert.Len(t, enq.keys, 1)
}

func TestQueueCommand(t *testing.T) {
	c := NewJobsCLI(nil, stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2, Failed: 1}})
	var out bytes.Buffer
	require.NoError(t, c.Execute(context.Background(), []string{"queue"}, &out))
	assert.Contains(t, out.String(), "pending=2")
	assert.Contains(t, out.String(), "failed=1")

	c = NewJobsCLI(nil, stubInspector{err: errors.New("redis down")})
	assert.Error(t, c.Execute(context.Background(), []string{"queue"}, &out))
}

func TestUnknownCommands(t *testing.T) {
	c := NewJobsCLI(&stubEnqueuer{}, nil)
	assert.Error(t, c.Execute(context.Background(), nil, &bytes.Buffer{}))
	assert.Error(t, c.Execute(context.Background(), []string{"purge"}, &bytes.Buffer{}))
	_, err := c.Trigger(context.Background(), "report:generate", nil)
	assert.Error(t, err)
	_, err = c.InspectQueue(context.Background())
	assert.Error(t, err)
}
