package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// ShipmentRepositoryGORM implements shipment.Repository using GORM
type ShipmentRepositoryGORM struct {
	db *gorm.DB
}

// NewShipmentRepository creates a GORM-based shipment repository
func NewShipmentRepository(db *gorm.DB) *ShipmentRepositoryGORM {
	return &ShipmentRepositoryGORM{db: db}
}

func shipmentToModel(s *shipment.Shipment) (*ShipmentModel, error) {
	windows := s.TimeWindows()
	if len(windows) == 0 {
		return nil, shared.NewValidationError("time_windows", "at least one window is required")
	}
	windowsJSON, err := json.Marshal(windows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize time windows: %w", err)
	}

	var dimensions *string
	if d := s.Dimensions(); d != nil {
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize dimensions: %w", err)
		}
		str := string(data)
		dimensions = &str
	}

	return &ShipmentModel{
		ID:               s.ID().String(),
		OrderNumber:      s.OrderNumber(),
		CustomerID:       uuidPtrToString(s.CustomerID()),
		DeliveryAddress:  s.DeliveryAddress(),
		Latitude:         s.Latitude(),
		Longitude:        s.Longitude(),
		DeliveryLocation: PointWKT(s.Latitude(), s.Longitude()),
		TimeWindows:      string(windowsJSON),
		SLATier:          string(s.SLATier()),
		TempLimitUpper:   s.TempLimitUpper(),
		TempLimitLower:   s.TempLimitLower(),
		ServiceDuration:  s.ServiceDuration(),
		Weight:           s.Weight(),
		Volume:           s.Volume(),
		Dimensions:       dimensions,
		PackageCount:     s.PackageCount(),
		Priority:         s.Priority(),
		Status:           string(s.Status()),
		RouteID:          uuidPtrToString(s.RouteID()),
		RouteSequence:    s.RouteSequence(),
		SpecialNotes:     s.SpecialNotes(),
	}, nil
}

func shipmentFromModel(m *ShipmentModel) (*shipment.Shipment, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shipment id: %w", err)
	}
	customerID, err := uuidPtrFromString(m.CustomerID)
	if err != nil {
		return nil, err
	}
	routeID, err := uuidPtrFromString(m.RouteID)
	if err != nil {
		return nil, err
	}

	var windows []shipment.TimeWindow
	if err := json.Unmarshal([]byte(m.TimeWindows), &windows); err != nil {
		return nil, fmt.Errorf("failed to parse time windows for shipment %s: %w", m.ID, err)
	}

	var dimensions *shipment.Dimensions
	if m.Dimensions != nil && *m.Dimensions != "" {
		dimensions = &shipment.Dimensions{}
		if err := json.Unmarshal([]byte(*m.Dimensions), dimensions); err != nil {
			return nil, fmt.Errorf("failed to parse dimensions for shipment %s: %w", m.ID, err)
		}
	}

	return shipment.RestoreShipment(
		id,
		m.OrderNumber,
		customerID,
		m.DeliveryAddress,
		m.Latitude,
		m.Longitude,
		windows,
		shipment.SLATier(m.SLATier),
		m.TempLimitUpper,
		m.TempLimitLower,
		m.ServiceDuration,
		m.Weight,
		m.Volume,
		dimensions,
		m.PackageCount,
		m.Priority,
		shipment.Status(m.Status),
		routeID,
		m.RouteSequence,
		m.SpecialNotes,
	), nil
}

func shipmentsFromModels(models []ShipmentModel) ([]*shipment.Shipment, error) {
	out := make([]*shipment.Shipment, 0, len(models))
	for i := range models {
		s, err := shipmentFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// FindByID retrieves a shipment by id
func (r *ShipmentRepositoryGORM) FindByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	var model ShipmentModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("shipment", id.String())
		}
		return nil, fmt.Errorf("failed to find shipment: %w", result.Error)
	}
	return shipmentFromModel(&model)
}

// FindByOrderNumber retrieves a shipment by its unique order number
func (r *ShipmentRepositoryGORM) FindByOrderNumber(ctx context.Context, orderNumber string) (*shipment.Shipment, error) {
	var model ShipmentModel
	result := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("shipment", orderNumber)
		}
		return nil, fmt.Errorf("failed to find shipment by order number: %w", result.Error)
	}
	return shipmentFromModel(&model)
}

// FindAll retrieves shipments with optional status filter and pagination
func (r *ShipmentRepositoryGORM) FindAll(ctx context.Context, status *shipment.Status, limit, offset int) ([]*shipment.Shipment, int64, error) {
	query := r.db.WithContext(ctx).Model(&ShipmentModel{})
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shipments: %w", err)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []ShipmentModel
	if err := query.Order("order_number").Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list shipments: %w", err)
	}

	shipments, err := shipmentsFromModels(models)
	if err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// FindPending retrieves PENDING shipments, optionally restricted to ids
func (r *ShipmentRepositoryGORM) FindPending(ctx context.Context, ids []uuid.UUID) ([]*shipment.Shipment, error) {
	query := r.db.WithContext(ctx).Where("status = ?", string(shipment.StatusPending))
	if len(ids) > 0 {
		query = query.Where("id IN ?", uuidStrings(ids))
	}

	var models []ShipmentModel
	if err := query.Order("order_number").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pending shipments: %w", err)
	}
	return shipmentsFromModels(models)
}

// FindByIDs retrieves the shipments with the given ids
func (r *ShipmentRepositoryGORM) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*shipment.Shipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ShipmentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", uuidStrings(ids)).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find shipments by ids: %w", err)
	}
	return shipmentsFromModels(models)
}

// CountPending counts PENDING shipments, optionally restricted to ids
func (r *ShipmentRepositoryGORM) CountPending(ctx context.Context, ids []uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&ShipmentModel{}).
		Where("status = ?", string(shipment.StatusPending))
	if len(ids) > 0 {
		query = query.Where("id IN ?", uuidStrings(ids))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pending shipments: %w", err)
	}
	return count, nil
}

// Save inserts or updates a shipment
func (r *ShipmentRepositoryGORM) Save(ctx context.Context, s *shipment.Shipment) error {
	model, err := shipmentToModel(s)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return shared.NewConflictError("order number already exists: " + s.OrderNumber())
		}
		return fmt.Errorf("failed to save shipment: %w", result.Error)
	}
	return nil
}

// SaveAll inserts or updates a batch in one transaction
func (r *ShipmentRepositoryGORM) SaveAll(ctx context.Context, shipments []*shipment.Shipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range shipments {
			model, err := shipmentToModel(s)
			if err != nil {
				return err
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(model)
			if result.Error != nil {
				if isUniqueViolation(result.Error) {
					return shared.NewConflictError("order number already exists: " + s.OrderNumber())
				}
				return fmt.Errorf("failed to save shipment %s: %w", s.OrderNumber(), result.Error)
			}
		}
		return nil
	})
}

// Delete removes a shipment. Callers enforce the PENDING-only deletion rule.
func (r *ShipmentRepositoryGORM) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&ShipmentModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete shipment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("shipment", id.String())
	}
	return nil
}

// ResetAll deletes all routes and stops and returns every shipment to PENDING
// with cleared route back-references
func (r *ShipmentRepositoryGORM) ResetAll(ctx context.Context) (int64, error) {
	var reset int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&RouteStopModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete route stops: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&RouteModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete routes: %w", err)
		}
		result := tx.Model(&ShipmentModel{}).
			Where("status <> ?", string(shipment.StatusPending)).
			Updates(map[string]interface{}{
				"status":         string(shipment.StatusPending),
				"route_id":       nil,
				"route_sequence": nil,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to reset shipments: %w", result.Error)
		}
		reset = result.RowsAffected

		// Clear dangling back-references on rows already PENDING
		if err := tx.Model(&ShipmentModel{}).
			Where("route_id IS NOT NULL").
			Updates(map[string]interface{}{"route_id": nil, "route_sequence": nil}).Error; err != nil {
			return fmt.Errorf("failed to clear route references: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reset, nil
}
