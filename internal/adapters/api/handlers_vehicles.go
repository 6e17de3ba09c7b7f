package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
)

type vehicleRequest struct {
	LicensePlate      string  `json:"license_plate" binding:"required"`
	CapacityWeightKg  float64 `json:"capacity_weight_kg" binding:"required"`
	CapacityVolumeM3  float64 `json:"capacity_volume_m3" binding:"required"`
	InsulationGrade   string  `json:"insulation_grade" binding:"required"`
	DoorType          string  `json:"door_type" binding:"required"`
	HasStripCurtains  bool    `json:"has_strip_curtains"`
	CoolingRate       float64 `json:"cooling_rate"`
	MinTempCapability float64 `json:"min_temp_capability"`
	Status            string  `json:"status"`
	DriverName        string  `json:"driver_name"`
}

func vehicleJSON(v *fleet.Vehicle) gin.H {
	return gin.H{
		"id":                  v.ID(),
		"license_plate":       v.LicensePlate(),
		"driver_id":           v.DriverID(),
		"driver_name":         v.DriverName(),
		"capacity_weight_kg":  v.CapacityWeight(),
		"capacity_volume_m3":  v.CapacityVolume(),
		"insulation_grade":    v.InsulationGrade(),
		"k_value":             v.KValue(),
		"door_type":           v.DoorType(),
		"door_coefficient":    v.DoorCoefficient(),
		"has_strip_curtains":  v.HasStripCurtains(),
		"cooling_rate":        v.CoolingRate(),
		"min_temp_capability": v.MinTempCapability(),
		"status":              v.Status(),
		"current_latitude":    v.CurrentLatitude(),
		"current_longitude":   v.CurrentLongitude(),
		"current_temperature": v.CurrentTemperature(),
		"last_telemetry_at":   v.LastTelemetryAt(),
	}
}

func (s *Server) handleListVehicles(ctx *gin.Context) {
	var status *fleet.VehicleStatus
	if raw := ctx.Query("status"); raw != "" {
		value := fleet.VehicleStatus(raw)
		status = &value
	}
	limit, offset := paginationParams(ctx)

	vehicles, total, err := s.deps.Vehicles.FindAll(ctx.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(vehicles))
	for _, v := range vehicles {
		items = append(items, vehicleJSON(v))
	}
	ctx.JSON(http.StatusOK, gin.H{"vehicles": items, "total": total})
}

func (s *Server) handleCreateVehicle(ctx *gin.Context) {
	var req vehicleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	vehicle, err := fleet.NewVehicle(
		uuid.Nil,
		req.LicensePlate,
		req.CapacityWeightKg,
		req.CapacityVolumeM3,
		fleet.InsulationGrade(req.InsulationGrade),
		fleet.DoorType(req.DoorType),
		req.HasStripCurtains,
		req.CoolingRate,
		req.MinTempCapability,
		fleet.VehicleStatus(req.Status),
	)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if req.DriverName != "" {
		vehicle.AssignDriver(nil, req.DriverName)
	}

	if err := s.deps.Vehicles.Save(ctx.Request.Context(), vehicle); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, vehicleJSON(vehicle))
}

func (s *Server) handleGetVehicle(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "vehicle_id")
	if err != nil {
		return
	}

	vehicle, err := s.deps.Vehicles.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, vehicleJSON(vehicle))
}

func (s *Server) handleUpdateVehicle(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "vehicle_id")
	if err != nil {
		return
	}

	vehicle, err := s.deps.Vehicles.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var req vehicleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	if err := vehicle.SetCapacity(req.CapacityWeightKg, req.CapacityVolumeM3); err != nil {
		respondError(ctx, err)
		return
	}
	if err := vehicle.SetInsulationGrade(fleet.InsulationGrade(req.InsulationGrade)); err != nil {
		respondError(ctx, err)
		return
	}
	if err := vehicle.SetDoorType(fleet.DoorType(req.DoorType)); err != nil {
		respondError(ctx, err)
		return
	}
	vehicle.SetStripCurtains(req.HasStripCurtains)
	if err := vehicle.SetCoolingRate(req.CoolingRate); err != nil {
		respondError(ctx, err)
		return
	}
	if req.Status != "" {
		if err := vehicle.SetStatus(fleet.VehicleStatus(req.Status)); err != nil {
			respondError(ctx, err)
			return
		}
	}
	if req.DriverName != "" {
		vehicle.AssignDriver(vehicle.DriverID(), req.DriverName)
	}

	if err := s.deps.Vehicles.Save(ctx.Request.Context(), vehicle); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, vehicleJSON(vehicle))
}

func (s *Server) handleDeleteVehicle(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "vehicle_id")
	if err != nil {
		return
	}

	if err := s.deps.Vehicles.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// handleVehicleThermodynamics exposes the derived thermal model of a vehicle
func (s *Server) handleVehicleThermodynamics(ctx *gin.Context) {
	id, err := parsePathUUID(ctx, "vehicle_id")
	if err != nil {
		return
	}

	vehicle, err := s.deps.Vehicles.FindByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	params := vehicle.ThermalParams()
	ctx.JSON(http.StatusOK, gin.H{
		"vehicle_id":                vehicle.ID(),
		"license_plate":             vehicle.LicensePlate(),
		"heat_transfer_coefficient": params.HeatTransferCoefficient,
		"door_coefficient":          params.DoorCoefficient,
		"curtain_factor":            params.CurtainFactor,
		"cooling_rate":              params.CoolingRate,
		"min_temp_capability":       vehicle.MinTempCapability(),
	})
}

func paginationParams(ctx *gin.Context) (limit, offset int) {
	limit = 100
	if raw := ctx.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := ctx.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
