// Package types holds the commands, queries and response shapes of the
// optimization use cases, shared between handlers and the transport layer.
package types

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
)

// Settings carries the configured cost model and defaults applied to every
// optimization run. Populated from configuration at wiring time.
type Settings struct {
	Defaults             planning.ParameterDefaults
	AverageSpeedKmh      float64
	DistanceCostPerKm    int64
	VehicleFixedCost     int64
	InfeasibleCost       int64
	TempViolationPenalty int64
	LateDeliveryPenalty  int64
	ProgressInterval     time.Duration
}

// ResultCache mirrors completed summaries into a fast store so status polls
// skip the database
type ResultCache interface {
	StoreResult(ctx context.Context, jobID uuid.UUID, summary *planning.ResultSummary) error
	GetResult(ctx context.Context, jobID uuid.UUID) (*planning.ResultSummary, error)
}

// SubmitOptimizationCommand requests a new asynchronous planning run. Empty
// id filters mean all available vehicles / all pending shipments.
type SubmitOptimizationCommand struct {
	PlanDate    time.Time
	VehicleIDs  []uuid.UUID
	ShipmentIDs []uuid.UUID
	Parameters  planning.JobParameters
}

// SubmitOptimizationResponse acknowledges the accepted job
type SubmitOptimizationResponse struct {
	JobID   uuid.UUID
	Status  planning.JobStatus
	Message string
}

// CancelOptimizationCommand revokes a pre-terminal job
type CancelOptimizationCommand struct {
	JobID uuid.UUID
}

// CancelOptimizationResponse reports the post-cancel status
type CancelOptimizationResponse struct {
	JobID  uuid.UUID
	Status planning.JobStatus
}

// ResetShipmentsCommand clears every route and returns all shipments to the
// planning pool
type ResetShipmentsCommand struct{}

// ResetShipmentsResponse reports how many shipments were reset
type ResetShipmentsResponse struct {
	ShipmentsReset int64
}

// GetJobStatusQuery polls one job
type GetJobStatusQuery struct {
	JobID uuid.UUID
}

// JobStatusResponse is the poll read model
type JobStatusResponse struct {
	JobID                 uuid.UUID
	TaskID                string
	Status                planning.JobStatus
	Progress              int
	PlanDate              time.Time
	CreatedAt             time.Time
	StartedAt             *time.Time
	CompletedAt           *time.Time
	DurationSeconds       *float64
	Result                *planning.ResultSummary
	ErrorMessage          string
	RouteIDs              []uuid.UUID
	UnassignedShipmentIDs []uuid.UUID
}

// ListJobsQuery lists jobs newest first with optional filters
type ListJobsQuery struct {
	PlanDate *time.Time
	Status   *planning.JobStatus
	Limit    int
}

// ListJobsResponse wraps the job list
type ListJobsResponse struct {
	Jobs []JobStatusResponse
}

// Unassigned-shipment diagnosis reasons
const (
	ReasonTimeWindow        = "TIME_WINDOW"
	ReasonStrictSLA         = "STRICT_SLA"
	ReasonTemperature       = "TEMPERATURE"
	ReasonCapacityOrRouting = "CAPACITY_OR_ROUTING"
)

// UnassignedShipment explains why a shipment was left out of the plan
type UnassignedShipment struct {
	ShipmentID  uuid.UUID
	OrderNumber string
	Address     string
	Reason      string
}

// GetViolationsQuery fetches the violation report of a finished job
type GetViolationsQuery struct {
	JobID uuid.UUID
}

// ViolationsResponse combines drop diagnoses with predicted temperature
// violations on materialized routes
type ViolationsResponse struct {
	JobID                 uuid.UUID
	UnassignedShipments   []UnassignedShipment
	TemperatureViolations []planning.TemperatureViolation
}
