package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists orders. UpdateStatus applies the flip only when
// the current status matches `from` and reports whether it did.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error)
}
