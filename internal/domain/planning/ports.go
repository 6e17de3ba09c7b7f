package planning

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// SolverStatus is the backend-neutral outcome of a solve
type SolverStatus string

const (
	SolverOptimal    SolverStatus = "OPTIMAL"
	SolverFeasible   SolverStatus = "FEASIBLE"
	SolverInfeasible SolverStatus = "INFEASIBLE"
	SolverTimeout    SolverStatus = "TIMEOUT"
	SolverNotSolved  SolverStatus = "NOT_SOLVED"
)

// IsSuccess reports whether the solve produced a usable assignment
func (s SolverStatus) IsSuccess() bool {
	return s == SolverOptimal || s == SolverFeasible
}

// SolverClient defines the seam to the constrained-optimization backend
type SolverClient interface {
	Solve(ctx context.Context, request *SolveRequest) (*SolveResult, error)
}

// DTOs for solver operations

// SolveVehicle is a vehicle as the solver sees it
type SolveVehicle struct {
	VehicleID        uuid.UUID
	LicensePlate     string
	CapacityWeightKg float64
	CapacityVolumeM3 float64
	FixedCost        int64
}

// SolveStop is one shipment node. Node indices start at 1; the depot is 0.
type SolveStop struct {
	ShipmentID     uuid.UUID
	Node           int
	WeightKg       float64
	VolumeM3       float64
	ServiceMinutes int
	TimeWindows    []shipment.TimeWindow
	Strict         bool
	Priority       int
}

// SolveParams carries search and cost configuration
type SolveParams struct {
	TimeLimit                time.Duration
	Strategy                 Strategy
	MaxVehicles              int // 0 = unlimited
	EarliestDepartureMinutes int
	VehicleFixedCost         int64
	InfeasibleCost           int64
	Seed                     int64
}

// SolveRequest is a complete problem instance
type SolveRequest struct {
	Vehicles []SolveVehicle
	Stops    []SolveStop
	Matrices *TravelMatrices
	Params   SolveParams
}

// VehicleTour is one vehicle's solution: the shipment nodes visited in order
// with the time-dimension cumul at each visit
type VehicleTour struct {
	VehicleIndex    int
	Nodes           []int
	ArrivalMinutes  []int
	SlackMinutes    []int
	DepartureMinute int // time cumul at the vehicle start
	ReturnMinute    int // time cumul back at the depot
}

// SolveResult is the typed solution returned by the driver. Tours contain
// only vehicles that serve at least one node.
type SolveResult struct {
	Status          SolverStatus
	Tours           []VehicleTour
	UnassignedNodes []int
	Objective       int64
	SolveTime       time.Duration
}

// TaskQueue defines the durable broker used to hand jobs to workers
type TaskQueue interface {
	// EnqueueOptimization enqueues a task keyed by job id and returns the
	// broker-assigned task id
	EnqueueOptimization(ctx context.Context, jobID uuid.UUID, timeLimitSeconds int) (string, error)

	// CancelOptimization requests revocation of a queued or running task.
	// Best-effort: a running worker may only notice on its next progress
	// write.
	CancelOptimization(ctx context.Context, taskID string) error
}

// JobRepository defines optimization-job persistence. The guarded methods
// return false when the row's status no longer permits the write; callers use
// that to implement the terminal-state write-discard rule.
type JobRepository interface {
	Create(ctx context.Context, job *OptimizationJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*OptimizationJob, error)
	List(ctx context.Context, planDate *time.Time, status *JobStatus, limit int) ([]*OptimizationJob, error)

	// SetTaskID records the broker task id on a freshly created row
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string) error

	// MarkRunning transitions to RUNNING (progress 5) unless the job already
	// reached a terminal state
	MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)

	// UpdateProgress writes progress while the job is still RUNNING
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) (bool, error)

	// MarkFailed writes the error fields unless the job reached a terminal
	// state (a concurrent cancel wins)
	MarkFailed(ctx context.Context, id uuid.UUID, message, traceback string, completedAt time.Time) (bool, error)

	// MarkCancelled transitions PENDING/RUNNING jobs to CANCELLED
	MarkCancelled(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
}

// ShipmentAssignment links a shipment to its materialized stop
type ShipmentAssignment struct {
	ShipmentID uuid.UUID
	RouteID    uuid.UUID
	Sequence   int
}

// MaterializedPlan is everything a successful run persists atomically:
// routes with stops, shipment status updates, and the completed job row.
type MaterializedPlan struct {
	Job         *OptimizationJob
	Routes      []*Route
	Assignments []ShipmentAssignment
}

// TemperatureViolation is a read model for the violations report
type TemperatureViolation struct {
	OrderNumber     string
	Address         string
	Sequence        int
	PredictedTemp   float64
	TempLimit       float64
	ViolationAmount float64
	SLATier         string
}

// RouteRepository defines route persistence and the transactional
// materialization commit
type RouteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Route, error)
	FindAll(ctx context.Context, planDate *time.Time, status *RouteStatus, vehicleID *uuid.UUID, limit, offset int) ([]*Route, int64, error)
	FindByJobID(ctx context.Context, jobID uuid.UUID) ([]*Route, error)

	// PersistPlan commits routes, stops, shipment assignments and the
	// COMPLETED job row in one transaction. Returns false (and rolls back)
	// when the job guard fails because the job was cancelled mid-run.
	PersistPlan(ctx context.Context, plan *MaterializedPlan) (bool, error)

	// UpdateStatus applies a legal execution-state transition
	UpdateStatus(ctx context.Context, id uuid.UUID, status RouteStatus) error

	// UpdateStop records execution results on a single stop
	UpdateStop(ctx context.Context, routeID, stopID uuid.UUID, update StopExecutionUpdate) error

	// ListTemperatureViolations returns infeasible stops of the job's routes
	ListTemperatureViolations(ctx context.Context, jobID uuid.UUID) ([]TemperatureViolation, error)
}

// StopExecutionUpdate carries the mutable execution fields of a stop
type StopExecutionUpdate struct {
	ActualArrivalAt   *time.Time
	ActualTemperature *float64
	DeliveryStatus    *DeliveryStatus
	Notes             *string
}
