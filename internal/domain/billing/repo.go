package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillRepository persists the ledger. CreateForAppointment and
// CreateForOrder must be idempotent: a second insert against the same
// appointment/order returns the existing row instead of a duplicate.
// MarkPaid reports whether this call performed the UNPAID→PAID flip,
// false when the bill was already PAID.
type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	CreateForAppointment(ctx context.Context, b *Bill) (*Bill, error)
	CreateForOrder(ctx context.Context, b *Bill) (*Bill, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Bill, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Bill, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, billType string, limit, offset int) ([]*Bill, int, error)
}
