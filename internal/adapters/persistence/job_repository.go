package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// JobRepositoryGORM implements planning.JobRepository using GORM. Status
// transitions are guarded single-row UPDATEs with a WHERE clause on the
// current status; a zero-rows result tells the caller the write was discarded
// because the job already reached a terminal state.
type JobRepositoryGORM struct {
	db *gorm.DB
}

// NewJobRepository creates a GORM-based optimization-job repository
func NewJobRepository(db *gorm.DB) *JobRepositoryGORM {
	return &JobRepositoryGORM{db: db}
}

func jobToModel(job *planning.OptimizationJob) (*OptimizationJobModel, error) {
	parameters, err := json.Marshal(job.Parameters())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize job parameters: %w", err)
	}
	vehicleIDs, err := uuidListToJSON(job.VehicleIDs())
	if err != nil {
		return nil, err
	}
	shipmentIDs, err := uuidListToJSON(job.ShipmentIDs())
	if err != nil {
		return nil, err
	}
	routeIDs, err := uuidListToJSON(job.RouteIDs())
	if err != nil {
		return nil, err
	}
	unassigned, err := uuidListToJSON(job.UnassignedShipmentIDs())
	if err != nil {
		return nil, err
	}

	var summary *string
	if s := job.ResultSummary(); s != nil {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize result summary: %w", err)
		}
		str := string(data)
		summary = &str
	}

	return &OptimizationJobModel{
		ID:                    job.ID().String(),
		TaskID:                job.TaskID(),
		Status:                string(job.Status()),
		Progress:              job.Progress(),
		PlanDate:              job.PlanDate(),
		VehicleIDs:            vehicleIDs,
		ShipmentIDs:           shipmentIDs,
		Parameters:            string(parameters),
		ResultSummary:         summary,
		RouteIDs:              routeIDs,
		UnassignedShipmentIDs: unassigned,
		ErrorMessage:          job.ErrorMessage(),
		ErrorTraceback:        job.ErrorTraceback(),
		CreatedAt:             job.CreatedAt(),
		StartedAt:             job.StartedAt(),
		CompletedAt:           job.CompletedAt(),
	}, nil
}

func jobFromModel(m *OptimizationJobModel) (*planning.OptimizationJob, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job id: %w", err)
	}

	var parameters planning.JobParameters
	if m.Parameters != "" {
		if err := json.Unmarshal([]byte(m.Parameters), &parameters); err != nil {
			return nil, fmt.Errorf("failed to parse job parameters: %w", err)
		}
	}

	var summary *planning.ResultSummary
	if m.ResultSummary != nil && *m.ResultSummary != "" {
		summary = &planning.ResultSummary{}
		if err := json.Unmarshal([]byte(*m.ResultSummary), summary); err != nil {
			return nil, fmt.Errorf("failed to parse result summary: %w", err)
		}
	}

	vehicleIDs, err := uuidListFromJSON(m.VehicleIDs)
	if err != nil {
		return nil, err
	}
	shipmentIDs, err := uuidListFromJSON(m.ShipmentIDs)
	if err != nil {
		return nil, err
	}
	routeIDs, err := uuidListFromJSON(m.RouteIDs)
	if err != nil {
		return nil, err
	}
	unassigned, err := uuidListFromJSON(m.UnassignedShipmentIDs)
	if err != nil {
		return nil, err
	}

	return planning.RestoreOptimizationJob(
		id,
		m.TaskID,
		planning.JobStatus(m.Status),
		m.Progress,
		m.PlanDate,
		vehicleIDs,
		shipmentIDs,
		parameters,
		summary,
		routeIDs,
		unassigned,
		m.CreatedAt,
		m.StartedAt,
		m.CompletedAt,
		m.ErrorMessage,
		m.ErrorTraceback,
	), nil
}

// Create inserts a new PENDING job row
func (r *JobRepositoryGORM) Create(ctx context.Context, job *planning.OptimizationJob) error {
	model, err := jobToModel(job)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create optimization job: %w", err)
	}
	return nil
}

// FindByID retrieves a job by id
func (r *JobRepositoryGORM) FindByID(ctx context.Context, id uuid.UUID) (*planning.OptimizationJob, error) {
	var model OptimizationJobModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("optimization job", id.String())
		}
		return nil, fmt.Errorf("failed to find optimization job: %w", result.Error)
	}
	return jobFromModel(&model)
}

// List retrieves jobs newest first with optional plan-date and status filters
func (r *JobRepositoryGORM) List(ctx context.Context, planDate *time.Time, status *planning.JobStatus, limit int) ([]*planning.OptimizationJob, error) {
	query := r.db.WithContext(ctx).Model(&OptimizationJobModel{})
	if planDate != nil {
		query = query.Where("plan_date = ?", *planDate)
	}
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []OptimizationJobModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list optimization jobs: %w", err)
	}

	jobs := make([]*planning.OptimizationJob, 0, len(models))
	for i := range models {
		job, err := jobFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// SetTaskID records the broker task id on a freshly created row
func (r *JobRepositoryGORM) SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error {
	result := r.db.WithContext(ctx).Model(&OptimizationJobModel{}).
		Where("id = ?", id.String()).
		Update("task_id", taskID)
	if result.Error != nil {
		return fmt.Errorf("failed to record task id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("optimization job", id.String())
	}
	return nil
}

// MarkRunning transitions a startable row to RUNNING with the initial worker
// progress. PENDING is the normal path; FAILED is re-claimed when the broker
// redelivers a task after a retryable failure, clearing the error fields from
// the previous attempt. Returns false when the job is no longer startable
// (cancelled while queued, or already completed).
func (r *JobRepositoryGORM) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OptimizationJobModel{}).
		Where("id = ? AND status IN ?", id.String(),
			[]string{string(planning.JobPending), string(planning.JobFailed)}).
		Updates(map[string]interface{}{
			"status":          string(planning.JobRunning),
			"progress":        5,
			"started_at":      startedAt,
			"completed_at":    nil,
			"error_message":   "",
			"error_traceback": "",
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark job running: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateProgress writes a progress bucket while the job is still RUNNING.
// The guard keeps reporter writes from resurrecting terminal rows; progress
// monotonicity is additionally enforced in SQL.
func (r *JobRepositoryGORM) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OptimizationJobModel{}).
		Where("id = ? AND status = ? AND progress <= ?", id.String(), string(planning.JobRunning), progress).
		Update("progress", progress)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update job progress: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkFailed writes the error fields unless the job already reached a
// terminal state (a concurrent cancel wins)
func (r *JobRepositoryGORM) MarkFailed(ctx context.Context, id uuid.UUID, message, traceback string, completedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OptimizationJobModel{}).
		Where("id = ? AND status IN ?", id.String(),
			[]string{string(planning.JobPending), string(planning.JobRunning)}).
		Updates(map[string]interface{}{
			"status":          string(planning.JobFailed),
			"error_message":   message,
			"error_traceback": traceback,
			"completed_at":    completedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark job failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkCancelled transitions PENDING/RUNNING jobs to CANCELLED
func (r *JobRepositoryGORM) MarkCancelled(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&OptimizationJobModel{}).
		Where("id = ? AND status IN ?", id.String(),
			[]string{string(planning.JobPending), string(planning.JobRunning)}).
		Updates(map[string]interface{}{
			"status":       string(planning.JobCancelled),
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark job cancelled: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// saveCompletedTx writes the COMPLETED job row inside the materialization
// transaction, guarded on RUNNING so a concurrent cancel aborts the commit.
func saveCompletedTx(tx *gorm.DB, job *planning.OptimizationJob) (bool, error) {
	model, err := jobToModel(job)
	if err != nil {
		return false, err
	}
	result := tx.Model(&OptimizationJobModel{}).
		Where("id = ? AND status = ?", model.ID, string(planning.JobRunning)).
		Updates(map[string]interface{}{
			"status":                  model.Status,
			"progress":                model.Progress,
			"result_summary":          model.ResultSummary,
			"route_ids":               model.RouteIDs,
			"unassigned_shipment_ids": model.UnassignedShipmentIDs,
			"completed_at":            model.CompletedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to finalize job: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
