package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

type routeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type stopUpdateRequest struct {
	ActualArrivalAt   *time.Time `json:"actual_arrival_at"`
	ActualTemperature *float64   `json:"actual_temperature"`
	DeliveryStatus    *string    `json:"delivery_status"`
	Notes             *string    `json:"notes"`
}

func stopJSON(stop *planning.RouteStop) gin.H {
	return gin.H{
		"id":                       stop.ID,
		"shipment_id":              stop.ShipmentID,
		"sequence_number":          stop.SequenceNumber,
		"latitude":                 stop.Latitude,
		"longitude":                stop.Longitude,
		"address":                  stop.Address,
		"expected_arrival_at":      stop.ExpectedArrivalAt,
		"expected_departure_at":    stop.ExpectedDepartureAt,
		"target_time_window_index": stop.TargetTimeWindowIndex,
		"slack_minutes":            stop.SlackMinutes,
		"predicted_arrival_temp":   stop.PredictedArrivalTemp,
		"is_temp_feasible":         stop.IsTempFeasible,
		"distance_from_prev_km":    stop.DistanceFromPrevKm,
		"travel_time_from_prev":    stop.TravelTimeFromPrev,
		"actual_arrival_at":        stop.ActualArrivalAt,
		"actual_temperature":       stop.ActualTemperature,
		"delivery_status":          stop.DeliveryStatus,
		"notes":                    stop.Notes,
	}
}

func routeJSON(route *planning.Route) gin.H {
	stops := make([]gin.H, 0, len(route.Stops))
	for _, stop := range route.Stops {
		stops = append(stops, stopJSON(stop))
	}
	return gin.H{
		"id":                   route.ID,
		"route_code":           route.RouteCode,
		"plan_date":            route.PlanDate.Format("2006-01-02"),
		"vehicle_id":           route.VehicleID,
		"driver_id":            route.DriverID,
		"driver_name":          route.DriverName,
		"status":               route.Status,
		"total_stops":          route.TotalStops,
		"total_distance_km":    route.TotalDistanceKm,
		"total_duration":       route.TotalDuration,
		"total_weight_kg":      route.TotalWeightKg,
		"total_volume_m3":      route.TotalVolumeM3,
		"initial_temperature":  route.InitialTemperature,
		"predicted_final_temp": route.PredictedFinalTemp,
		"predicted_max_temp":   route.PredictedMaxTemp,
		"planned_departure_at": route.PlannedDepartureAt,
		"planned_return_at":    route.PlannedReturnAt,
		"actual_departure_at":  route.ActualDepartureAt,
		"actual_return_at":     route.ActualReturnAt,
		"depot_address":        route.DepotAddress,
		"depot_latitude":       route.DepotLatitude,
		"depot_longitude":      route.DepotLongitude,
		"optimization_job_id":  route.OptimizationJobID,
		"optimization_cost":    route.OptimizationCost,
		"stops":                stops,
	}
}

func (s *Server) handleListRoutes(ctx *gin.Context) {
	var planDate *time.Time
	if raw := ctx.Query("plan_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondBindError(ctx, fmt.Errorf("plan_date must be YYYY-MM-DD"))
			return
		}
		planDate = &parsed
	}

	var status *planning.RouteStatus
	if raw := ctx.Query("status"); raw != "" {
		value := planning.RouteStatus(raw)
		status = &value
	}

	var vehicleID *uuid.UUID
	if raw := ctx.Query("vehicle_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondBindError(ctx, fmt.Errorf("vehicle_id must be a uuid"))
			return
		}
		vehicleID = &parsed
	}

	limit, offset := paginationParams(ctx)

	routes, total, err := s.deps.Routes.FindAll(
		ctx.Request.Context(), planDate, status, vehicleID, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(routes))
	for _, route := range routes {
		items = append(items, routeJSON(route))
	}
	ctx.JSON(http.StatusOK, gin.H{"routes": items, "total": total})
}

func (s *Server) handleGetRoute(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "route_id")
	if err != nil {
		return
	}

	route, err := s.deps.Routes.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, routeJSON(route))
}

// handleTemperatureAnalysis breaks the predicted thermal profile of a route
// down stop by stop
func (s *Server) handleTemperatureAnalysis(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "route_id")
	if err != nil {
		return
	}

	route, err := s.deps.Routes.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	stops := make([]gin.H, 0, len(route.Stops))
	for _, stop := range route.Stops {
		stops = append(stops, gin.H{
			"sequence_number":          stop.SequenceNumber,
			"shipment_id":              stop.ShipmentID,
			"address":                  stop.Address,
			"predicted_arrival_temp":   stop.PredictedArrivalTemp,
			"transit_temp_rise":        stop.TransitTempRise,
			"service_temp_rise":        stop.ServiceTempRise,
			"cooling_applied":          stop.CoolingApplied,
			"predicted_departure_temp": stop.PredictedDepartureTemp,
			"is_temp_feasible":         stop.IsTempFeasible,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"route_id":             route.ID,
		"route_code":           route.RouteCode,
		"initial_temperature":  route.InitialTemperature,
		"predicted_max_temp":   route.PredictedMaxTemp,
		"predicted_final_temp": route.PredictedFinalTemp,
		"is_feasible":          route.IsTemperatureFeasible(),
		"stops":                stops,
	})
}

func (s *Server) handleUpdateRouteStatus(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "route_id")
	if err != nil {
		return
	}

	var req routeStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	status := planning.RouteStatus(req.Status)
	if !status.IsValid() {
		respondError(ctx, shared.NewValidationError("status", fmt.Sprintf("unknown route status %q", req.Status)))
		return
	}

	if err := s.deps.Routes.UpdateStatus(ctx.Request.Context(), id, status); err != nil {
		respondError(ctx, err)
		return
	}

	route, err := s.deps.Routes.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, routeJSON(route))
}

func (s *Server) handleUpdateStop(ctx *gin.Context) {
	routeID, err := parsePathUUID(ctx, "route_id")
	if err != nil {
		return
	}
	stopID, err := parsePathUUID(ctx, "stop_id")
	if err != nil {
		return
	}

	var req stopUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	update := planning.StopExecutionUpdate{
		ActualArrivalAt:   req.ActualArrivalAt,
		ActualTemperature: req.ActualTemperature,
		Notes:             req.Notes,
	}
	if req.DeliveryStatus != nil {
		status := planning.DeliveryStatus(*req.DeliveryStatus)
		if !status.IsValid() {
			respondError(ctx, shared.NewValidationError("delivery_status",
				fmt.Sprintf("unknown delivery status %q", *req.DeliveryStatus)))
			return
		}
		update.DeliveryStatus = &status
	}

	if err := s.deps.Routes.UpdateStop(ctx.Request.Context(), routeID, stopID, update); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"route_id": routeID, "stop_id": stopID, "updated": true})
}
