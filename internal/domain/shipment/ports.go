package shipment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines shipment persistence operations
type Repository interface {
	// FindByID retrieves a shipment by its id
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindByOrderNumber retrieves a shipment by its unique order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Shipment, error)

	// FindAll retrieves shipments, optionally filtered by status
	FindAll(ctx context.Context, status *Status, limit, offset int) ([]*Shipment, int64, error)

	// FindPending retrieves PENDING shipments, optionally restricted to ids
	FindPending(ctx context.Context, ids []uuid.UUID) ([]*Shipment, error)

	// FindByIDs retrieves the shipments with the given ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Shipment, error)

	// CountPending counts PENDING shipments, optionally restricted to ids
	CountPending(ctx context.Context, ids []uuid.UUID) (int64, error)

	// Save inserts or updates a shipment
	Save(ctx context.Context, s *Shipment) error

	// SaveAll inserts or updates a batch in one transaction
	SaveAll(ctx context.Context, shipments []*Shipment) error

	// Delete removes a shipment (callers enforce the PENDING-only rule)
	Delete(ctx context.Context, id uuid.UUID) error

	// ResetAll deletes all routes and stops and returns every shipment to
	// PENDING with cleared route back-references; returns the number reset
	ResetAll(ctx context.Context) (int64, error)
}
