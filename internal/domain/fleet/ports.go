package fleet

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines vehicle persistence operations
type VehicleRepository interface {
	// FindByID retrieves a vehicle by its id
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindByLicensePlate retrieves a vehicle by its unique plate
	FindByLicensePlate(ctx context.Context, plate string) (*Vehicle, error)

	// FindAll retrieves vehicles, optionally filtered by status
	FindAll(ctx context.Context, status *VehicleStatus, limit, offset int) ([]*Vehicle, int64, error)

	// FindAvailable retrieves AVAILABLE vehicles, optionally restricted to ids
	FindAvailable(ctx context.Context, ids []uuid.UUID) ([]*Vehicle, error)

	// CountAvailable counts AVAILABLE vehicles, optionally restricted to ids
	CountAvailable(ctx context.Context, ids []uuid.UUID) (int64, error)

	// Save inserts or updates a vehicle
	Save(ctx context.Context, vehicle *Vehicle) error

	// Delete removes a vehicle
	Delete(ctx context.Context, id uuid.UUID) error
}
