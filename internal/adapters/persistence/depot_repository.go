package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// DepotRepositoryGORM implements depot.Repository using GORM
type DepotRepositoryGORM struct {
	db *gorm.DB
}

// NewDepotRepository creates a GORM-based depot repository
func NewDepotRepository(db *gorm.DB) *DepotRepositoryGORM {
	return &DepotRepositoryGORM{db: db}
}

func depotToModel(d *depot.Depot) *DepotModel {
	return &DepotModel{
		ID:        d.ID().String(),
		Name:      d.Name(),
		Address:   d.Address(),
		Latitude:  d.Latitude(),
		Longitude: d.Longitude(),
		Location:  PointWKT(d.Latitude(), d.Longitude()),
		Active:    d.Active(),
	}
}

func depotFromModel(m *DepotModel) (*depot.Depot, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse depot id: %w", err)
	}
	return depot.RestoreDepot(id, m.Name, m.Address, m.Latitude, m.Longitude, m.Active), nil
}

// FindByID retrieves a depot by id
func (r *DepotRepositoryGORM) FindByID(ctx context.Context, id uuid.UUID) (*depot.Depot, error) {
	var model DepotModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("depot", id.String())
		}
		return nil, fmt.Errorf("failed to find depot: %w", result.Error)
	}
	return depotFromModel(&model)
}

// FindActive retrieves the first active depot
func (r *DepotRepositoryGORM) FindActive(ctx context.Context) (*depot.Depot, error) {
	var model DepotModel
	result := r.db.WithContext(ctx).Where("active = ?", true).Order("created_at").First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("depot", "active")
		}
		return nil, fmt.Errorf("failed to find active depot: %w", result.Error)
	}
	return depotFromModel(&model)
}

// FindAll retrieves every depot
func (r *DepotRepositoryGORM) FindAll(ctx context.Context) ([]*depot.Depot, error) {
	var models []DepotModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list depots: %w", err)
	}
	depots := make([]*depot.Depot, 0, len(models))
	for i := range models {
		d, err := depotFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		depots = append(depots, d)
	}
	return depots, nil
}

// Save inserts or updates a depot
func (r *DepotRepositoryGORM) Save(ctx context.Context, d *depot.Depot) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(depotToModel(d))
	if result.Error != nil {
		return fmt.Errorf("failed to save depot: %w", result.Error)
	}
	return nil
}

// Delete removes a depot
func (r *DepotRepositoryGORM) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&DepotModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete depot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("depot", id.String())
	}
	return nil
}
