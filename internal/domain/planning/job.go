package planning

import (
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// JobStatus is the optimization job lifecycle.
//
// Transitions are monotone: PENDING → RUNNING → {COMPLETED | FAILED}.
// CANCELLED may interrupt from any pre-terminal state. Terminal states are
// never overwritten.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// ResultSummary is the compact outcome written on the job row when a run
// finishes
type ResultSummary struct {
	RoutesCreated        int     `json:"routes_created"`
	ShipmentsAssigned    int     `json:"shipments_assigned"`
	ShipmentsUnassigned  int     `json:"shipments_unassigned"`
	TotalDistanceKm      float64 `json:"total_distance_km"`
	TotalDurationMinutes int     `json:"total_duration_minutes"`
	TotalCost            float64 `json:"total_cost"`
	SolverStatus         string  `json:"solver_status"`
	SolverTimeSeconds    float64 `json:"solver_time_seconds"`
}

// OptimizationJob entity - one asynchronous planning attempt
//
// Invariants:
// - status transitions are monotone (see JobStatus)
// - progress is within [0,100] and non-decreasing during a run
// - completed_at ≥ started_at ≥ created_at
type OptimizationJob struct {
	id                    uuid.UUID
	taskID                string
	status                JobStatus
	progress              int
	planDate              time.Time
	vehicleIDs            []uuid.UUID
	shipmentIDs           []uuid.UUID
	parameters            JobParameters
	resultSummary         *ResultSummary
	routeIDs              []uuid.UUID
	unassignedShipmentIDs []uuid.UUID
	createdAt             time.Time
	startedAt             *time.Time
	completedAt           *time.Time
	errorMessage          string
	errorTraceback        string
}

// NewOptimizationJob creates a PENDING job for the given plan date. Nil id
// filters mean "all available vehicles" / "all pending shipments".
func NewOptimizationJob(
	id uuid.UUID,
	planDate time.Time,
	vehicleIDs []uuid.UUID,
	shipmentIDs []uuid.UUID,
	parameters JobParameters,
	clock shared.Clock,
) (*OptimizationJob, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if planDate.IsZero() {
		return nil, shared.NewValidationError("plan_date", "cannot be empty")
	}
	if err := parameters.Validate(); err != nil {
		return nil, err
	}

	return &OptimizationJob{
		id:          id,
		status:      JobPending,
		progress:    0,
		planDate:    planDate,
		vehicleIDs:  vehicleIDs,
		shipmentIDs: shipmentIDs,
		parameters:  parameters,
		createdAt:   clock.Now(),
	}, nil
}

func (j *OptimizationJob) ID() uuid.UUID                      { return j.id }
func (j *OptimizationJob) TaskID() string                     { return j.taskID }
func (j *OptimizationJob) Status() JobStatus                  { return j.status }
func (j *OptimizationJob) Progress() int                      { return j.progress }
func (j *OptimizationJob) PlanDate() time.Time                { return j.planDate }
func (j *OptimizationJob) VehicleIDs() []uuid.UUID            { return j.vehicleIDs }
func (j *OptimizationJob) ShipmentIDs() []uuid.UUID           { return j.shipmentIDs }
func (j *OptimizationJob) Parameters() JobParameters          { return j.parameters }
func (j *OptimizationJob) ResultSummary() *ResultSummary      { return j.resultSummary }
func (j *OptimizationJob) RouteIDs() []uuid.UUID              { return j.routeIDs }
func (j *OptimizationJob) UnassignedShipmentIDs() []uuid.UUID { return j.unassignedShipmentIDs }
func (j *OptimizationJob) CreatedAt() time.Time               { return j.createdAt }
func (j *OptimizationJob) StartedAt() *time.Time              { return j.startedAt }
func (j *OptimizationJob) CompletedAt() *time.Time            { return j.completedAt }
func (j *OptimizationJob) ErrorMessage() string               { return j.errorMessage }
func (j *OptimizationJob) ErrorTraceback() string             { return j.errorTraceback }

// IsFinished reports whether the job reached a terminal state
func (j *OptimizationJob) IsFinished() bool {
	return j.status.IsTerminal()
}

// DurationSeconds derives run time from the start/completion timestamps
func (j *OptimizationJob) DurationSeconds() *float64 {
	if j.startedAt == nil || j.completedAt == nil {
		return nil
	}
	seconds := j.completedAt.Sub(*j.startedAt).Seconds()
	return &seconds
}

// SetTaskID records the broker-assigned task id after enqueueing
func (j *OptimizationJob) SetTaskID(taskID string) {
	j.taskID = taskID
}

// MarkRunning transitions the job to RUNNING with the initial worker progress
func (j *OptimizationJob) MarkRunning(clock shared.Clock) error {
	if j.status.IsTerminal() {
		return shared.NewConflictError("job already finished")
	}
	now := clock.Now()
	j.status = JobRunning
	j.progress = 5
	j.startedAt = &now
	return nil
}

// SetProgress advances progress; regressions are ignored to keep the value
// non-decreasing within a run
func (j *OptimizationJob) SetProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > j.progress {
		j.progress = progress
	}
}

// MarkCompleted finalizes a successful run
func (j *OptimizationJob) MarkCompleted(
	routeIDs []uuid.UUID,
	unassigned []uuid.UUID,
	summary ResultSummary,
	clock shared.Clock,
) error {
	if j.status != JobRunning {
		return shared.NewConflictError("only RUNNING jobs can complete")
	}
	now := clock.Now()
	j.status = JobCompleted
	j.progress = 100
	j.routeIDs = routeIDs
	j.unassignedShipmentIDs = unassigned
	j.resultSummary = &summary
	j.completedAt = &now
	return nil
}

// MarkFailed finalizes a failed run with the error detail
func (j *OptimizationJob) MarkFailed(message, traceback string, clock shared.Clock) error {
	if j.status.IsTerminal() {
		return shared.NewConflictError("job already finished")
	}
	now := clock.Now()
	j.status = JobFailed
	j.errorMessage = message
	j.errorTraceback = traceback
	j.completedAt = &now
	return nil
}

// MarkCancelled interrupts a pre-terminal job
func (j *OptimizationJob) MarkCancelled(clock shared.Clock) error {
	if j.status.IsTerminal() {
		return shared.NewConflictError("cannot cancel job with status " + string(j.status))
	}
	now := clock.Now()
	j.status = JobCancelled
	j.completedAt = &now
	return nil
}

// RestoreOptimizationJob rebuilds a job from persisted state
func RestoreOptimizationJob(
	id uuid.UUID,
	taskID string,
	status JobStatus,
	progress int,
	planDate time.Time,
	vehicleIDs []uuid.UUID,
	shipmentIDs []uuid.UUID,
	parameters JobParameters,
	resultSummary *ResultSummary,
	routeIDs []uuid.UUID,
	unassignedShipmentIDs []uuid.UUID,
	createdAt time.Time,
	startedAt *time.Time,
	completedAt *time.Time,
	errorMessage string,
	errorTraceback string,
) *OptimizationJob {
	return &OptimizationJob{
		id:                    id,
		taskID:                taskID,
		status:                status,
		progress:              progress,
		planDate:              planDate,
		vehicleIDs:            vehicleIDs,
		shipmentIDs:           shipmentIDs,
		parameters:            parameters,
		resultSummary:         resultSummary,
		routeIDs:              routeIDs,
		unassignedShipmentIDs: unassignedShipmentIDs,
		createdAt:             createdAt,
		startedAt:             startedAt,
		completedAt:           completedAt,
		errorMessage:          errorMessage,
		errorTraceback:        errorTraceback,
	}
}
