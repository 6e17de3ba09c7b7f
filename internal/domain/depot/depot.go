package depot

import (
	"context"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// Depot is the start and end location of every route on a plan date
type Depot struct {
	id        uuid.UUID
	name      string
	address   string
	latitude  float64
	longitude float64
	active    bool
}

// NewDepot creates an active depot
func NewDepot(id uuid.UUID, name, address string, latitude, longitude float64) (*Depot, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}

	d := &Depot{
		id:        id,
		name:      name,
		address:   address,
		latitude:  latitude,
		longitude: longitude,
		active:    true,
	}

	if err := d.validate(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Depot) validate() error {
	if d.name == "" {
		return shared.NewValidationError("name", "cannot be empty")
	}
	if d.latitude < -90 || d.latitude > 90 {
		return shared.NewValidationError("latitude", "must be within [-90, 90]")
	}
	if d.longitude < -180 || d.longitude > 180 {
		return shared.NewValidationError("longitude", "must be within [-180, 180]")
	}
	return nil
}

func (d *Depot) ID() uuid.UUID      { return d.id }
func (d *Depot) Name() string       { return d.name }
func (d *Depot) Address() string    { return d.address }
func (d *Depot) Latitude() float64  { return d.latitude }
func (d *Depot) Longitude() float64 { return d.longitude }
func (d *Depot) Active() bool       { return d.active }

// SetActive toggles whether the depot may anchor new plans
func (d *Depot) SetActive(active bool) {
	d.active = active
}

// SetLocation moves the depot
func (d *Depot) SetLocation(latitude, longitude float64, address string) error {
	if latitude < -90 || latitude > 90 {
		return shared.NewValidationError("latitude", "must be within [-90, 90]")
	}
	if longitude < -180 || longitude > 180 {
		return shared.NewValidationError("longitude", "must be within [-180, 180]")
	}
	d.latitude = latitude
	d.longitude = longitude
	if address != "" {
		d.address = address
	}
	return nil
}

// RestoreDepot rebuilds a depot from persisted state
func RestoreDepot(id uuid.UUID, name, address string, latitude, longitude float64, active bool) *Depot {
	return &Depot{
		id:        id,
		name:      name,
		address:   address,
		latitude:  latitude,
		longitude: longitude,
		active:    active,
	}
}

// Repository defines depot persistence operations
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Depot, error)
	FindActive(ctx context.Context) (*Depot, error)
	FindAll(ctx context.Context) ([]*Depot, error)
	Save(ctx context.Context, d *Depot) error
	Delete(ctx context.Context, id uuid.UUID) error
}
