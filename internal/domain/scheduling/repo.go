package scheduling

import (
	"context"

	"github.com/google/uuid"
)

// AppointmentRepository persists appointments. Create surfaces
// errs.ErrSlotTaken when the (doctor, date, time) reservation is already
// held by a non-cancelled row. UpdateStatus applies the flip only when the
// current status matches `from` and reports whether it did.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string, limit, offset int) ([]*Appointment, int, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)
}
