package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
)

// optimizeRequest is the submission body. Parameters are optional and fall
// back to configured defaults.
type optimizeRequest struct {
	PlanDate    string   `json:"plan_date" binding:"required"`
	VehicleIDs  []string `json:"vehicle_ids"`
	ShipmentIDs []string `json:"shipment_ids"`

	TimeLimitSeconds     int      `json:"time_limit_seconds"`
	Strategy             string   `json:"strategy"`
	AmbientTemperature   *float64 `json:"ambient_temperature"`
	InitialVehicleTemp   *float64 `json:"initial_vehicle_temp"`
	AllowPartial         bool     `json:"allow_partial"`
	MaxVehicles          int      `json:"max_vehicles"`
	PlannedDepartureTime string   `json:"planned_departure_time"`
	DepotLatitude        *float64 `json:"depot_latitude"`
	DepotLongitude       *float64 `json:"depot_longitude"`
	DepotAddress         string   `json:"depot_address"`
}

func (s *Server) handleSubmitOptimization(ctx *gin.Context) {
	var req optimizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	planDate, err := time.Parse("2006-01-02", req.PlanDate)
	if err != nil {
		respondBindError(ctx, fmt.Errorf("plan_date must be YYYY-MM-DD"))
		return
	}

	vehicleIDs, err := parseUUIDList(req.VehicleIDs, "vehicle_ids")
	if err != nil {
		respondBindError(ctx, err)
		return
	}
	shipmentIDs, err := parseUUIDList(req.ShipmentIDs, "shipment_ids")
	if err != nil {
		respondBindError(ctx, err)
		return
	}

	command := &types.SubmitOptimizationCommand{
		PlanDate:    planDate,
		VehicleIDs:  vehicleIDs,
		ShipmentIDs: shipmentIDs,
		Parameters: planning.JobParameters{
			TimeLimitSeconds:     req.TimeLimitSeconds,
			Strategy:             planning.Strategy(req.Strategy),
			AmbientTemperature:   req.AmbientTemperature,
			InitialVehicleTemp:   req.InitialVehicleTemp,
			AllowPartial:         req.AllowPartial,
			MaxVehicles:          req.MaxVehicles,
			PlannedDepartureTime: req.PlannedDepartureTime,
			DepotLatitude:        req.DepotLatitude,
			DepotLongitude:       req.DepotLongitude,
			DepotAddress:         req.DepotAddress,
		},
	}

	response, err := s.deps.Mediator.Send(ctx.Request.Context(), command)
	if err != nil {
		respondError(ctx, err)
		return
	}

	accepted := response.(*types.SubmitOptimizationResponse)
	ctx.JSON(http.StatusAccepted, gin.H{
		"job_id":  accepted.JobID,
		"status":  accepted.Status,
		"message": accepted.Message,
	})
}

func (s *Server) handleJobStatus(ctx *gin.Context) {
	jobID, err := parsePathUUID(ctx, "job_id")
	if err != nil {
		return
	}

	response, err := s.deps.Mediator.Send(ctx.Request.Context(), &types.GetJobStatusQuery{JobID: jobID})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, jobStatusJSON(response.(*types.JobStatusResponse)))
}

func (s *Server) handleListJobs(ctx *gin.Context) {
	query := &types.ListJobsQuery{}

	if raw := ctx.Query("plan_date"); raw != "" {
		planDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondBindError(ctx, fmt.Errorf("plan_date must be YYYY-MM-DD"))
			return
		}
		query.PlanDate = &planDate
	}
	if raw := ctx.Query("status"); raw != "" {
		status := planning.JobStatus(raw)
		query.Status = &status
	}
	if raw := ctx.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &query.Limit); err != nil {
			respondBindError(ctx, fmt.Errorf("limit must be an integer"))
			return
		}
	}

	response, err := s.deps.Mediator.Send(ctx.Request.Context(), query)
	if err != nil {
		respondError(ctx, err)
		return
	}

	list := response.(*types.ListJobsResponse)
	jobs := make([]gin.H, 0, len(list.Jobs))
	for i := range list.Jobs {
		jobs = append(jobs, jobStatusJSON(&list.Jobs[i]))
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleCancelJob(ctx *gin.Context) {
	jobID, err := parsePathUUID(ctx, "job_id")
	if err != nil {
		return
	}

	response, err := s.deps.Mediator.Send(ctx.Request.Context(), &types.CancelOptimizationCommand{JobID: jobID})
	if err != nil {
		respondError(ctx, err)
		return
	}

	cancelled := response.(*types.CancelOptimizationResponse)
	ctx.JSON(http.StatusOK, gin.H{
		"job_id": cancelled.JobID,
		"status": cancelled.Status,
	})
}

func (s *Server) handleJobViolations(ctx *gin.Context) {
	jobID, err := parsePathUUID(ctx, "job_id")
	if err != nil {
		return
	}

	response, err := s.deps.Mediator.Send(ctx.Request.Context(), &types.GetViolationsQuery{JobID: jobID})
	if err != nil {
		respondError(ctx, err)
		return
	}

	report := response.(*types.ViolationsResponse)

	unassigned := make([]gin.H, 0, len(report.UnassignedShipments))
	for _, u := range report.UnassignedShipments {
		unassigned = append(unassigned, gin.H{
			"shipment_id":  u.ShipmentID,
			"order_number": u.OrderNumber,
			"address":      u.Address,
			"reason":       u.Reason,
		})
	}

	temperature := make([]gin.H, 0, len(report.TemperatureViolations))
	for _, v := range report.TemperatureViolations {
		temperature = append(temperature, gin.H{
			"order_number":     v.OrderNumber,
			"address":          v.Address,
			"sequence":         v.Sequence,
			"predicted_temp":   v.PredictedTemp,
			"temp_limit":       v.TempLimit,
			"violation_amount": v.ViolationAmount,
			"sla_tier":         v.SLATier,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"job_id":                 report.JobID,
		"unassigned_shipments":   unassigned,
		"temperature_violations": temperature,
	})
}

func (s *Server) handleResetShipments(ctx *gin.Context) {
	response, err := s.deps.Mediator.Send(ctx.Request.Context(), &types.ResetShipmentsCommand{})
	if err != nil {
		respondError(ctx, err)
		return
	}

	reset := response.(*types.ResetShipmentsResponse)
	ctx.JSON(http.StatusOK, gin.H{"shipments_reset": reset.ShipmentsReset})
}

func jobStatusJSON(job *types.JobStatusResponse) gin.H {
	out := gin.H{
		"job_id":                  job.JobID,
		"status":                  job.Status,
		"progress":                job.Progress,
		"plan_date":               job.PlanDate.Format("2006-01-02"),
		"created_at":              job.CreatedAt,
		"started_at":              job.StartedAt,
		"completed_at":            job.CompletedAt,
		"duration_seconds":        job.DurationSeconds,
		"error_message":           job.ErrorMessage,
		"route_ids":               job.RouteIDs,
		"unassigned_shipment_ids": job.UnassignedShipmentIDs,
	}
	if job.Result != nil {
		out["result"] = job.Result
	}
	return out
}

func parseUUIDList(raw []string, field string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%s contains invalid uuid %q", field, value)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePathUUID parses a path parameter, writing the error response itself
func parsePathUUID(ctx *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		respondBindError(ctx, fmt.Errorf("%s must be a uuid", name))
		return uuid.Nil, err
	}
	return id, nil
}
