package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentRepository persists payment attempts. Finalize applies the
// PENDING→terminal flip only when the payment is still PENDING and reports
// whether it did; that guard is what makes outcome reports idempotent.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	Finalize(ctx context.Context, id uuid.UUID, status string, gatewayResponse *string, paidAt *time.Time) (bool, error)
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*Payment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error)
}
