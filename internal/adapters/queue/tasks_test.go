package queue_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/adapters/queue"
)

func TestOptimizeTask_Roundtrip(t *testing.T) {
	jobID := uuid.New()

	task, opts, err := queue.NewOptimizeTask(jobID, 120)
	require.NoError(t, err)
	assert.Equal(t, queue.TypeOptimizeRoutes, task.Type())
	assert.NotEmpty(t, opts)

	payload, err := queue.ParseOptimizePayload(task)
	require.NoError(t, err)
	assert.Equal(t, jobID.String(), payload.JobID)
	assert.Equal(t, 120, payload.TimeLimitSeconds)
}

func TestParseOptimizePayload_RejectsBadJobID(t *testing.T) {
	body, err := json.Marshal(queue.OptimizePayload{JobID: "not-a-uuid", TimeLimitSeconds: 60})
	require.NoError(t, err)

	_, err = queue.ParseOptimizePayload(asynq.NewTask(queue.TypeOptimizeRoutes, body))
	assert.Error(t, err)
}

func TestParseOptimizePayload_RejectsGarbage(t *testing.T) {
	_, err := queue.ParseOptimizePayload(asynq.NewTask(queue.TypeOptimizeRoutes, []byte("{")))
	assert.Error(t, err)
}

func TestParseRedisURL(t *testing.T) {
	asynqOpt, redisOpt, err := queue.ParseRedisURL("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", asynqOpt.Addr)
	assert.Equal(t, 2, asynqOpt.DB)
	assert.Equal(t, "localhost:6379", redisOpt.Addr)

	_, _, err = queue.ParseRedisURL("://nope")
	assert.Error(t, err)
}
