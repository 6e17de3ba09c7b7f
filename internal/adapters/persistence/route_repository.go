package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// RouteRepositoryGORM implements planning.RouteRepository using GORM
type RouteRepositoryGORM struct {
	db *gorm.DB
}

// NewRouteRepository creates a GORM-based route repository
func NewRouteRepository(db *gorm.DB) *RouteRepositoryGORM {
	return &RouteRepositoryGORM{db: db}
}

func routeToModel(route *planning.Route) *RouteModel {
	model := &RouteModel{
		ID:                 route.ID.String(),
		RouteCode:          route.RouteCode,
		PlanDate:           route.PlanDate,
		VehicleID:          route.VehicleID.String(),
		DriverID:           uuidPtrToString(route.DriverID),
		DriverName:         route.DriverName,
		Status:             string(route.Status),
		TotalStops:         route.TotalStops,
		TotalDistanceKm:    route.TotalDistanceKm,
		TotalDuration:      route.TotalDuration,
		TotalWeightKg:      route.TotalWeightKg,
		TotalVolumeM3:      route.TotalVolumeM3,
		InitialTemperature: route.InitialTemperature,
		PredictedFinalTemp: route.PredictedFinalTemp,
		PredictedMaxTemp:   route.PredictedMaxTemp,
		PlannedDepartureAt: route.PlannedDepartureAt,
		PlannedReturnAt:    route.PlannedReturnAt,
		ActualDepartureAt:  route.ActualDepartureAt,
		ActualReturnAt:     route.ActualReturnAt,
		DepotAddress:       route.DepotAddress,
		DepotLatitude:      route.DepotLatitude,
		DepotLongitude:     route.DepotLongitude,
		DepotLocation:      PointWKT(route.DepotLatitude, route.DepotLongitude),
		OptimizationJobID:  uuidPtrToString(route.OptimizationJobID),
		OptimizationCost:   route.OptimizationCost,
	}
	for _, stop := range route.Stops {
		model.Stops = append(model.Stops, *stopToModel(stop))
	}
	return model
}

func stopToModel(stop *planning.RouteStop) *RouteStopModel {
	var deliveryStatus *string
	if stop.DeliveryStatus != nil {
		s := string(*stop.DeliveryStatus)
		deliveryStatus = &s
	}
	return &RouteStopModel{
		ID:                     stop.ID.String(),
		RouteID:                stop.RouteID.String(),
		SequenceNumber:         stop.SequenceNumber,
		ShipmentID:             stop.ShipmentID.String(),
		Latitude:               stop.Latitude,
		Longitude:              stop.Longitude,
		Location:               PointWKT(stop.Latitude, stop.Longitude),
		Address:                stop.Address,
		ExpectedArrivalAt:      stop.ExpectedArrivalAt,
		ExpectedDepartureAt:    stop.ExpectedDepartureAt,
		TargetTimeWindowIndex:  stop.TargetTimeWindowIndex,
		SlackMinutes:           stop.SlackMinutes,
		PredictedArrivalTemp:   stop.PredictedArrivalTemp,
		TransitTempRise:        stop.TransitTempRise,
		ServiceTempRise:        stop.ServiceTempRise,
		CoolingApplied:         stop.CoolingApplied,
		PredictedDepartureTemp: stop.PredictedDepartureTemp,
		IsTempFeasible:         stop.IsTempFeasible,
		DistanceFromPrev:       stop.DistanceFromPrevKm,
		TravelTimeFromPrev:     stop.TravelTimeFromPrev,
		ActualArrivalAt:        stop.ActualArrivalAt,
		ActualTemperature:      stop.ActualTemperature,
		DeliveryStatus:         deliveryStatus,
		Notes:                  stop.Notes,
	}
}

func routeFromModel(m *RouteModel) (*planning.Route, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse route id: %w", err)
	}
	vehicleID, err := uuid.Parse(m.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vehicle id on route %s: %w", m.ID, err)
	}
	driverID, err := uuidPtrFromString(m.DriverID)
	if err != nil {
		return nil, err
	}
	jobID, err := uuidPtrFromString(m.OptimizationJobID)
	if err != nil {
		return nil, err
	}

	route := &planning.Route{
		ID:                 id,
		RouteCode:          m.RouteCode,
		PlanDate:           m.PlanDate,
		VehicleID:          vehicleID,
		DriverID:           driverID,
		DriverName:         m.DriverName,
		Status:             planning.RouteStatus(m.Status),
		TotalStops:         m.TotalStops,
		TotalDistanceKm:    m.TotalDistanceKm,
		TotalDuration:      m.TotalDuration,
		TotalWeightKg:      m.TotalWeightKg,
		TotalVolumeM3:      m.TotalVolumeM3,
		InitialTemperature: m.InitialTemperature,
		PredictedFinalTemp: m.PredictedFinalTemp,
		PredictedMaxTemp:   m.PredictedMaxTemp,
		PlannedDepartureAt: m.PlannedDepartureAt,
		PlannedReturnAt:    m.PlannedReturnAt,
		ActualDepartureAt:  m.ActualDepartureAt,
		ActualReturnAt:     m.ActualReturnAt,
		DepotAddress:       m.DepotAddress,
		DepotLatitude:      m.DepotLatitude,
		DepotLongitude:     m.DepotLongitude,
		OptimizationJobID:  jobID,
		OptimizationCost:   m.OptimizationCost,
	}

	for i := range m.Stops {
		stop, err := stopFromModel(&m.Stops[i])
		if err != nil {
			return nil, err
		}
		route.Stops = append(route.Stops, stop)
	}
	return route, nil
}

func stopFromModel(m *RouteStopModel) (*planning.RouteStop, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stop id: %w", err)
	}
	routeID, err := uuid.Parse(m.RouteID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse route id on stop %s: %w", m.ID, err)
	}
	shipmentID, err := uuid.Parse(m.ShipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shipment id on stop %s: %w", m.ID, err)
	}

	var deliveryStatus *planning.DeliveryStatus
	if m.DeliveryStatus != nil {
		s := planning.DeliveryStatus(*m.DeliveryStatus)
		deliveryStatus = &s
	}

	return &planning.RouteStop{
		ID:                     id,
		RouteID:                routeID,
		ShipmentID:             shipmentID,
		SequenceNumber:         m.SequenceNumber,
		Latitude:               m.Latitude,
		Longitude:              m.Longitude,
		Address:                m.Address,
		ExpectedArrivalAt:      m.ExpectedArrivalAt,
		ExpectedDepartureAt:    m.ExpectedDepartureAt,
		TargetTimeWindowIndex:  m.TargetTimeWindowIndex,
		SlackMinutes:           m.SlackMinutes,
		PredictedArrivalTemp:   m.PredictedArrivalTemp,
		TransitTempRise:        m.TransitTempRise,
		ServiceTempRise:        m.ServiceTempRise,
		CoolingApplied:         m.CoolingApplied,
		PredictedDepartureTemp: m.PredictedDepartureTemp,
		IsTempFeasible:         m.IsTempFeasible,
		DistanceFromPrevKm:     m.DistanceFromPrev,
		TravelTimeFromPrev:     m.TravelTimeFromPrev,
		ActualArrivalAt:        m.ActualArrivalAt,
		ActualTemperature:      m.ActualTemperature,
		DeliveryStatus:         deliveryStatus,
		Notes:                  m.Notes,
	}, nil
}

// FindByID retrieves a route with its stops ordered by sequence
func (r *RouteRepositoryGORM) FindByID(ctx context.Context, id uuid.UUID) (*planning.Route, error) {
	var model RouteModel
	result := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_number") }).
		Where("id = ?", id.String()).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("route", id.String())
		}
		return nil, fmt.Errorf("failed to find route: %w", result.Error)
	}
	return routeFromModel(&model)
}

// FindAll retrieves routes with optional filters, newest plan date first
func (r *RouteRepositoryGORM) FindAll(ctx context.Context, planDate *time.Time, status *planning.RouteStatus, vehicleID *uuid.UUID, limit, offset int) ([]*planning.Route, int64, error) {
	query := r.db.WithContext(ctx).Model(&RouteModel{})
	if planDate != nil {
		query = query.Where("plan_date = ?", *planDate)
	}
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	if vehicleID != nil {
		query = query.Where("vehicle_id = ?", vehicleID.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count routes: %w", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []RouteModel
	if err := query.
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_number") }).
		Order("plan_date DESC, route_code").
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list routes: %w", err)
	}

	routes := make([]*planning.Route, 0, len(models))
	for i := range models {
		route, err := routeFromModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		routes = append(routes, route)
	}
	return routes, total, nil
}

// FindByJobID retrieves the routes materialized by one optimization job
func (r *RouteRepositoryGORM) FindByJobID(ctx context.Context, jobID uuid.UUID) ([]*planning.Route, error) {
	var models []RouteModel
	if err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_number") }).
		Where("optimization_job_id = ?", jobID.String()).
		Order("route_code").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find routes for job: %w", err)
	}

	routes := make([]*planning.Route, 0, len(models))
	for i := range models {
		route, err := routeFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// PersistPlan commits routes, stops, shipment assignments and the COMPLETED
// job row in a single transaction. The job write is guarded on RUNNING; when
// the guard reports zero rows (the job was cancelled mid-run) the whole
// transaction rolls back and no partial routes survive.
func (r *RouteRepositoryGORM) PersistPlan(ctx context.Context, plan *planning.MaterializedPlan) (bool, error) {
	committed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, route := range plan.Routes {
			model := routeToModel(route)
			if err := tx.Create(model).Error; err != nil {
				if isUniqueViolation(err) {
					return shared.NewConflictError("route code already exists: " + route.RouteCode)
				}
				return fmt.Errorf("failed to insert route %s: %w", route.RouteCode, err)
			}
		}

		for _, assignment := range plan.Assignments {
			result := tx.Model(&ShipmentModel{}).
				Where("id = ? AND status = ?", assignment.ShipmentID.String(), string(shipment.StatusPending)).
				Updates(map[string]interface{}{
					"status":         string(shipment.StatusAssigned),
					"route_id":       assignment.RouteID.String(),
					"route_sequence": assignment.Sequence,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to assign shipment %s: %w", assignment.ShipmentID, result.Error)
			}
			if result.RowsAffected == 0 {
				return shared.NewConflictError("shipment no longer pending: " + assignment.ShipmentID.String())
			}
		}

		ok, err := saveCompletedTx(tx, plan.Job)
		if err != nil {
			return err
		}
		if !ok {
			// Cancelled while the worker was materializing; abort everything.
			return errPlanDiscarded
		}
		committed = true
		return nil
	})

	if errors.Is(err, errPlanDiscarded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return committed, nil
}

var errPlanDiscarded = errors.New("plan discarded: job no longer running")

// UpdateStatus applies a legal execution-state transition to a route
func (r *RouteRepositoryGORM) UpdateStatus(ctx context.Context, id uuid.UUID, status planning.RouteStatus) error {
	route, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !route.Status.CanTransitionTo(status) {
		return shared.NewConflictError(fmt.Sprintf("route cannot move from %s to %s", route.Status, status))
	}

	updates := map[string]interface{}{"status": string(status)}
	now := time.Now().UTC()
	switch status {
	case planning.RouteInProgress:
		updates["actual_departure_at"] = now
	case planning.RouteCompleted:
		updates["actual_return_at"] = now
	}

	result := r.db.WithContext(ctx).Model(&RouteModel{}).
		Where("id = ? AND status = ?", id.String(), string(route.Status)).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update route status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("route status changed concurrently")
	}
	return nil
}

// UpdateStop records execution results on a single stop
func (r *RouteRepositoryGORM) UpdateStop(ctx context.Context, routeID, stopID uuid.UUID, update planning.StopExecutionUpdate) error {
	updates := map[string]interface{}{}
	if update.ActualArrivalAt != nil {
		updates["actual_arrival_at"] = *update.ActualArrivalAt
	}
	if update.ActualTemperature != nil {
		updates["actual_temperature"] = *update.ActualTemperature
	}
	if update.DeliveryStatus != nil {
		updates["delivery_status"] = string(*update.DeliveryStatus)
	}
	if update.Notes != nil {
		updates["notes"] = *update.Notes
	}
	if len(updates) == 0 {
		return shared.NewValidationError("update", "no fields to update")
	}

	result := r.db.WithContext(ctx).Model(&RouteStopModel{}).
		Where("id = ? AND route_id = ?", stopID.String(), routeID.String()).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update stop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("route stop", stopID.String())
	}
	return nil
}

// ListTemperatureViolations returns infeasible stops of the job's routes
func (r *RouteRepositoryGORM) ListTemperatureViolations(ctx context.Context, jobID uuid.UUID) ([]planning.TemperatureViolation, error) {
	type row struct {
		OrderNumber          string
		SLATier              string
		TempLimitUpper       float64
		Address              string
		SequenceNumber       int
		PredictedArrivalTemp float64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("route_stops").
		Select("shipments.order_number, shipments.sla_tier, shipments.temp_limit_upper, route_stops.address, route_stops.sequence_number, route_stops.predicted_arrival_temp").
		Joins("JOIN routes ON routes.id = route_stops.route_id").
		Joins("JOIN shipments ON shipments.id = route_stops.shipment_id").
		Where("routes.optimization_job_id = ? AND route_stops.is_temp_feasible = ?", jobID.String(), false).
		Order("routes.route_code, route_stops.sequence_number").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list temperature violations: %w", err)
	}

	violations := make([]planning.TemperatureViolation, 0, len(rows))
	for _, v := range rows {
		violations = append(violations, planning.TemperatureViolation{
			OrderNumber:     v.OrderNumber,
			Address:         v.Address,
			Sequence:        v.SequenceNumber,
			PredictedTemp:   v.PredictedArrivalTemp,
			TempLimit:       v.TempLimitUpper,
			ViolationAmount: v.PredictedArrivalTemp - v.TempLimitUpper,
			SLATier:         v.SLATier,
		})
	}
	return violations, nil
}
