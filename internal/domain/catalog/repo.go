package catalog

import (
	"context"

	"github.com/google/uuid"
)

type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	SearchByName(ctx context.Context, name string, limit, offset int) ([]*Hospital, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Doctor, int, error)
	SearchByHospitalName(ctx context.Context, hospitalName string, limit, offset int) ([]*Doctor, int, error)
	UpdateAvailability(ctx context.Context, id uuid.UUID, availability WeeklyAvailability) error
}

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)

	// DecrementStock applies "stock = stock - qty" only when at least qty
	// units remain, as a single conditional write. It returns the stock
	// level after the statement ran and whether the decrement was applied.
	// When it was not applied, the returned stock is the level that caused
	// the rejection.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (stock int, applied bool, err error)

	// IncrementStock unconditionally returns qty units to stock, used when
	// an order is cancelled.
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}
