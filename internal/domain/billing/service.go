package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/errs"
)

type Service struct {
	bills BillRepository
}

func NewService(bills BillRepository) *Service {
	return &Service{bills: bills}
}

// CreateAppointmentBill records the APPOINTMENT charge for a booked slot.
// Safe to call again for the same appointment; the existing bill comes back.
func (s *Service) CreateAppointmentBill(ctx context.Context, patientID, appointmentID uuid.UUID, amount float64, description string) (*Bill, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", errs.ErrInvalidInput)
	}
	b := &Bill{PatientID: patientID, AppointmentID: &appointmentID, Amount: amount}
	if description != "" {
		b.Description = &description
	}
	return s.bills.CreateForAppointment(ctx, b)
}

// CreateOrderBill records the MEDICINE charge for a placed order, one per order.
func (s *Service) CreateOrderBill(ctx context.Context, patientID, orderID uuid.UUID, amount float64, description string) (*Bill, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", errs.ErrInvalidInput)
	}
	b := &Bill{PatientID: patientID, OrderID: &orderID, Amount: amount}
	if description != "" {
		b.Description = &description
	}
	return s.bills.CreateForOrder(ctx, b)
}

// CreateBill records an ad hoc charge, typically a HOSPITAL bill raised by staff.
func (s *Service) CreateBill(ctx context.Context, b *Bill) error {
	if b.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required: %w", errs.ErrInvalidInput)
	}
	if !validType(b.Type) {
		return fmt.Errorf("invalid bill type %q: %w", b.Type, errs.ErrInvalidInput)
	}
	if b.Amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", errs.ErrInvalidInput)
	}
	b.Status = StatusUnpaid
	return s.bills.Create(ctx, b)
}

// MarkPaid settles a bill. Calling it on an already-PAID bill is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Bill, error) {
	if _, err := s.bills.MarkPaid(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	return s.bills.GetByID(ctx, id)
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) GetBillForOrder(ctx context.Context, orderID uuid.UUID) (*Bill, error) {
	return s.bills.GetByOrderID(ctx, orderID)
}

func (s *Service) GetBillForAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	return s.bills.GetByAppointmentID(ctx, appointmentID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, billType string, limit, offset int) ([]*Bill, int, error) {
	if billType != "" && !validType(billType) {
		return nil, 0, fmt.Errorf("invalid bill type %q: %w", billType, errs.ErrInvalidInput)
	}
	return s.bills.ListByPatient(ctx, patientID, billType, limit, offset)
}
