package customer

import (
	"context"
	"fmt"

	"customer-registry/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

	ErrAlreadyExists = fmt.Errorf("customer %w", apperrors.ErrAlreadyExists)

	ErrAddressNotFound = fmt.Errorf("customer %w", apperrors.ErrAddressNotFound)
)

// Repository is the primary store. Create and Update fill the store-assigned timestamps in place.
type Repository interface {
	ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error)

	Create(ctx context.Context, customer *Customer) error

	Update(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, id string) (*Customer, error)

	Delete(ctx context.Context, id string) error

	FindAll(ctx context.Context, filters []Filter, page PageRequest) (*Page, error)

	// FindNear returns matches within radiusKm of point, ascending by distance.
	FindNear(ctx context.Context, point Coordinates, radiusKm float64) ([]GeoResult, error)
}

type SearchIndex interface {
	Upsert(ctx context.Context, doc SearchDocument) error
}

type Geocoder interface {
	Resolve(ctx context.Context, address string) (Coordinates, error)
}

// SaveListener is notified after every successful create or update.
type SaveListener interface {
	OnCustomerSaved(ctx context.Context, customer *Customer)
}

type SaveListenerFunc func(ctx context.Context, customer *Customer)

func (f SaveListenerFunc) OnCustomerSaved(ctx context.Context, customer *Customer) {
	f(ctx, customer)
}
