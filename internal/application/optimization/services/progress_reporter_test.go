package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/application/optimization/services"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
)

// progressRecorder implements the job repository surface the reporter touches
type progressRecorder struct {
	mu      sync.Mutex
	writes  []int
	running bool
}

func (r *progressRecorder) Create(context.Context, *planning.OptimizationJob) error { return nil }
func (r *progressRecorder) FindByID(context.Context, uuid.UUID) (*planning.OptimizationJob, error) {
	return nil, nil
}
func (r *progressRecorder) List(context.Context, *time.Time, *planning.JobStatus, int) ([]*planning.OptimizationJob, error) {
	return nil, nil
}
func (r *progressRecorder) SetTaskID(context.Context, uuid.UUID, string) error { return nil }
func (r *progressRecorder) MarkRunning(context.Context, uuid.UUID, time.Time) (bool, error) {
	return true, nil
}
func (r *progressRecorder) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) (bool, error) {
	return true, nil
}
func (r *progressRecorder) MarkCancelled(context.Context, uuid.UUID, time.Time) (bool, error) {
	return true, nil
}

func (r *progressRecorder) UpdateProgress(_ context.Context, _ uuid.UUID, progress int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false, nil
	}
	r.writes = append(r.writes, progress)
	return true, nil
}

func (r *progressRecorder) setRunning(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = running
}

func (r *progressRecorder) written() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.writes...)
}

func TestProgressAt_Buckets(t *testing.T) {
	limit := 300 * time.Second

	assert.Equal(t, 5, services.ProgressAt(0, limit))
	assert.Equal(t, 5, services.ProgressAt(10*time.Second, limit))
	assert.Equal(t, 47, services.ProgressAt(150*time.Second, limit))
	assert.Equal(t, 95, services.ProgressAt(300*time.Second, limit))
	assert.Equal(t, 95, services.ProgressAt(10*time.Hour, limit))
	assert.Equal(t, 5, services.ProgressAt(time.Minute, 0))
}

func TestReporter_WritesMonotoneBuckets(t *testing.T) {
	repo := &progressRecorder{running: true}
	reporter := services.NewProgressReporter(repo, 20*time.Millisecond, nil)

	// With a 200ms "solve" the buckets climb from 5 toward 95
	handle := reporter.Start(context.Background(), uuid.New(), 200*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	handle.Stop()

	writes := repo.written()
	require.NotEmpty(t, writes)
	for i := 1; i < len(writes); i++ {
		assert.Greater(t, writes[i], writes[i-1], "buckets must be strictly increasing (coalesced)")
	}
	assert.LessOrEqual(t, writes[len(writes)-1], 95)
}

func TestReporter_DiscardedWriteClosesCancelled(t *testing.T) {
	repo := &progressRecorder{running: false}
	reporter := services.NewProgressReporter(repo, 10*time.Millisecond, nil)

	handle := reporter.Start(context.Background(), uuid.New(), 50*time.Millisecond)
	defer handle.Stop()

	select {
	case <-handle.Cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Cancelled to close after a discarded write")
	}
	assert.Empty(t, repo.written())
}

func TestReporter_StopTerminatesQuietly(t *testing.T) {
	repo := &progressRecorder{running: true}
	reporter := services.NewProgressReporter(repo, 10*time.Millisecond, nil)

	handle := reporter.Start(context.Background(), uuid.New(), time.Minute)
	handle.Stop()

	select {
	case <-handle.Cancelled:
		t.Fatal("Cancelled must stay open on a clean stop")
	default:
	}
}
