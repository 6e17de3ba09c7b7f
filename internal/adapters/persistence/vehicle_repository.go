package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// VehicleRepositoryGORM implements fleet.VehicleRepository using GORM
type VehicleRepositoryGORM struct {
	db *gorm.DB
}

// NewVehicleRepository creates a GORM-based vehicle repository
func NewVehicleRepository(db *gorm.DB) *VehicleRepositoryGORM {
	return &VehicleRepositoryGORM{db: db}
}

func vehicleToModel(v *fleet.Vehicle) *VehicleModel {
	model := &VehicleModel{
		ID:                v.ID().String(),
		LicensePlate:      v.LicensePlate(),
		DriverID:          uuidPtrToString(v.DriverID()),
		DriverName:        v.DriverName(),
		CapacityWeight:    v.CapacityWeight(),
		CapacityVolume:    v.CapacityVolume(),
		InsulationGrade:   string(v.InsulationGrade()),
		KValue:            v.KValue(),
		DoorType:          string(v.DoorType()),
		DoorCoefficient:   v.DoorCoefficient(),
		HasStripCurtains:  v.HasStripCurtains(),
		CoolingRate:       v.CoolingRate(),
		MinTempCapability: v.MinTempCapability(),
		Status:            string(v.Status()),
		CurrentLatitude:   v.CurrentLatitude(),
		CurrentLongitude:  v.CurrentLongitude(),
		CurrentTemp:       v.CurrentTemperature(),
		LastTelemetryAt:   v.LastTelemetryAt(),
	}
	if model.CurrentLatitude != nil && model.CurrentLongitude != nil {
		model.CurrentLocation = PointWKT(*model.CurrentLatitude, *model.CurrentLongitude)
	}
	return model
}

func vehicleFromModel(m *VehicleModel) (*fleet.Vehicle, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vehicle id: %w", err)
	}
	driverID, err := uuidPtrFromString(m.DriverID)
	if err != nil {
		return nil, err
	}
	return fleet.RestoreVehicle(
		id,
		m.LicensePlate,
		driverID,
		m.DriverName,
		m.CapacityWeight,
		m.CapacityVolume,
		fleet.InsulationGrade(m.InsulationGrade),
		m.KValue,
		fleet.DoorType(m.DoorType),
		m.DoorCoefficient,
		m.HasStripCurtains,
		m.CoolingRate,
		m.MinTempCapability,
		fleet.VehicleStatus(m.Status),
		m.CurrentLatitude,
		m.CurrentLongitude,
		m.CurrentTemp,
		m.LastTelemetryAt,
	), nil
}

// FindByID retrieves a vehicle by id
func (r *VehicleRepositoryGORM) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	var model VehicleModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", result.Error)
	}
	return vehicleFromModel(&model)
}

// FindByLicensePlate retrieves a vehicle by its unique plate
func (r *VehicleRepositoryGORM) FindByLicensePlate(ctx context.Context, plate string) (*fleet.Vehicle, error) {
	var model VehicleModel
	result := r.db.WithContext(ctx).Where("license_plate = ?", plate).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("vehicle", plate)
		}
		return nil, fmt.Errorf("failed to find vehicle by plate: %w", result.Error)
	}
	return vehicleFromModel(&model)
}

// FindAll retrieves vehicles with optional status filter and pagination
func (r *VehicleRepositoryGORM) FindAll(ctx context.Context, status *fleet.VehicleStatus, limit, offset int) ([]*fleet.Vehicle, int64, error) {
	query := r.db.WithContext(ctx).Model(&VehicleModel{})
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []VehicleModel
	if err := query.Order("license_plate").Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}

	vehicles := make([]*fleet.Vehicle, 0, len(models))
	for i := range models {
		v, err := vehicleFromModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, total, nil
}

// FindAvailable retrieves AVAILABLE vehicles, optionally restricted to ids
func (r *VehicleRepositoryGORM) FindAvailable(ctx context.Context, ids []uuid.UUID) ([]*fleet.Vehicle, error) {
	query := r.db.WithContext(ctx).Where("status = ?", string(fleet.VehicleAvailable))
	if len(ids) > 0 {
		query = query.Where("id IN ?", uuidStrings(ids))
	}

	var models []VehicleModel
	if err := query.Order("license_plate").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find available vehicles: %w", err)
	}

	vehicles := make([]*fleet.Vehicle, 0, len(models))
	for i := range models {
		v, err := vehicleFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

// CountAvailable counts AVAILABLE vehicles, optionally restricted to ids
func (r *VehicleRepositoryGORM) CountAvailable(ctx context.Context, ids []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&VehicleModel{}).
		Where("status = ?", string(fleet.VehicleAvailable))
	if len(ids) > 0 {
		query = query.Where("id IN ?", uuidStrings(ids))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count available vehicles: %w", err)
	}
	return count, nil
}

// Save inserts or updates a vehicle
func (r *VehicleRepositoryGORM) Save(ctx context.Context, vehicle *fleet.Vehicle) error {
	model := vehicleToModel(vehicle)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.NewConflictError("license plate already registered: " + vehicle.LicensePlate())
		}
		return fmt.Errorf("failed to save vehicle: %w", result.Error)
	}
	return nil
}

// Delete removes a vehicle
func (r *VehicleRepositoryGORM) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&VehicleModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("vehicle", id.String())
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
