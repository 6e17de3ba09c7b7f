package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// DefaultProgressInterval is how often the reporter writes a progress bucket
const DefaultProgressInterval = 10 * time.Second

// ProgressReporter periodically writes elapsed-time progress buckets on a
// RUNNING job. Buckets top out at 95; the final write to 100 belongs to the
// completion transaction. A guarded write that hits zero rows means the job
// was cancelled, which the reporter surfaces by closing its Cancelled channel.
type ProgressReporter struct {
	jobs     planning.JobRepository
	interval time.Duration
	clock    shared.Clock
}

// NewProgressReporter creates a reporter writing every interval
func NewProgressReporter(jobs planning.JobRepository, interval time.Duration, clock shared.Clock) *ProgressReporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ProgressReporter{jobs: jobs, interval: interval, clock: clock}
}

// ReporterHandle controls one reporting goroutine
type ReporterHandle struct {
	// Cancelled closes when a guarded progress write is discarded because the
	// job left RUNNING (cancellation mid-run)
	Cancelled <-chan struct{}

	stop chan struct{}
	done chan struct{}
}

// Stop terminates the reporter and waits for the goroutine to exit
func (h *ReporterHandle) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	<-h.done
}

// ProgressAt maps elapsed solve time to a bucket in [5, 95]
func ProgressAt(elapsed, limit time.Duration) int {
	if limit <= 0 {
		return 5
	}
	progress := int(elapsed.Seconds() / limit.Seconds() * 95.0)
	if progress < 5 {
		progress = 5
	}
	if progress > 95 {
		progress = 95
	}
	return progress
}

// Start launches the reporting goroutine for one run. Writes are coalesced:
// a bucket equal to the last written one is skipped.
func (r *ProgressReporter) Start(ctx context.Context, jobID uuid.UUID, limit time.Duration) *ReporterHandle {
	cancelled := make(chan struct{})
	handle := &ReporterHandle{
		Cancelled: cancelled,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	started := r.clock.Now()
	go func() {
		defer close(handle.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		lastWritten := 5
		for {
			select {
			case <-handle.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				progress := ProgressAt(r.clock.Now().Sub(started), limit)
				if progress == lastWritten {
					continue
				}

				ok, err := r.jobs.UpdateProgress(ctx, jobID, progress)
				if err != nil {
					log.Printf("Progress write for job %s failed: %v", jobID, err)
					continue
				}
				if !ok {
					close(cancelled)
					return
				}
				lastWritten = progress
			}
		}
	}()

	return handle
}
