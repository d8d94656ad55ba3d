package pharmacy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/billing"
	"github.com/careportal/careportal/internal/domain/catalog"
	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/db"
)

// MedicineStore is the slice of the catalog the order processor needs.
// DecrementStock must be the conditional form: applied=false with the
// current stock when fewer than qty units remain.
type MedicineStore interface {
	GetMedicine(ctx context.Context, id uuid.UUID) (*catalog.Medicine, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (stock int, applied bool, err error)
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

// Biller creates the medicine charge inside the order transaction.
type Biller interface {
	CreateOrderBill(ctx context.Context, patientID, orderID uuid.UUID, amount float64, description string) (*billing.Bill, error)
}

type Service struct {
	orders    OrderRepository
	medicines MedicineStore
	biller    Biller
	tx        db.TxRunner
}

func NewService(orders OrderRepository, medicines MedicineStore, biller Biller, tx db.TxRunner) *Service {
	return &Service{orders: orders, medicines: medicines, biller: biller, tx: tx}
}

// OrderRequest is what a patient submits to buy a medicine.
type OrderRequest struct {
	MedicineID      uuid.UUID `json:"medicine_id"`
	Quantity        int       `json:"quantity"`
	PaymentMethod   *string   `json:"payment_method,omitempty"`
	PrescriptionRef *string   `json:"prescription_ref,omitempty"`
}

// PlaceOrder reserves stock and records the order and its MEDICINE bill in
// one transaction. The stock decrement is a guarded update, so two orders
// racing for the last units cannot both succeed; the loser gets
// ErrInsufficientStock carrying the stock level that remained.
func (s *Service) PlaceOrder(ctx context.Context, patientID uuid.UUID, req OrderRequest) (*Order, error) {
	if req.MedicineID == uuid.Nil {
		return nil, fmt.Errorf("medicine_id is required: %w", errs.ErrInvalidInput)
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", errs.ErrInvalidInput)
	}
	m, err := s.medicines.GetMedicine(ctx, req.MedicineID)
	if err != nil {
		return nil, err
	}
	if m.PrescriptionRequired {
		if req.PrescriptionRef == nil || strings.TrimSpace(*req.PrescriptionRef) == "" {
			return nil, fmt.Errorf("%s requires a prescription reference: %w", m.Name, errs.ErrInvalidInput)
		}
	}

	// The client never supplies the price; the total is computed here
	// from the catalog row.
	o := &Order{
		ID:              uuid.New(),
		PatientID:       patientID,
		MedicineID:      m.ID,
		MedicineName:    m.Name,
		Quantity:        req.Quantity,
		UnitPrice:       m.Price,
		TotalAmount:     m.Price * float64(req.Quantity),
		PaymentMethod:   req.PaymentMethod,
		PrescriptionRef: req.PrescriptionRef,
		Status:          StatusPlaced,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		stock, applied, err := s.medicines.DecrementStock(ctx, m.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !applied {
			return &errs.InsufficientStockError{Available: stock}
		}
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		desc := fmt.Sprintf("%dx %s", o.Quantity, o.MedicineName)
		_, err = s.biller.CreateOrderBill(ctx, patientID, o.ID, o.TotalAmount, desc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CancelOrder returns the reserved units to stock. Repeat cancels are
// no-ops; a delivered order cannot be cancelled.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Cancelled() {
		return o, nil
	}
	if !canTransition(o.Status, StatusCancelled) {
		return nil, fmt.Errorf("order is %s: %w", o.Status, errs.ErrAlreadyFinalized)
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		flipped, err := s.orders.UpdateStatus(ctx, id, o.Status, StatusCancelled)
		if err != nil {
			return err
		}
		if !flipped {
			// Another writer moved the order first; nothing to restore.
			return nil
		}
		return s.medicines.IncrementStock(ctx, o.MedicineID, o.Quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

// UpdateStatus moves an order along PLACED→CONFIRMED→DELIVERED.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*Order, error) {
	if to != StatusConfirmed && to != StatusDelivered {
		return nil, fmt.Errorf("invalid target status %q: %w", to, errs.ErrInvalidInput)
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, nil
	}
	if !canTransition(o.Status, to) {
		return nil, fmt.Errorf("cannot move %s order to %s: %w", o.Status, to, errs.ErrAlreadyFinalized)
	}
	if _, err := s.orders.UpdateStatus(ctx, id, o.Status, to); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, id)
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.orders.ListByPatient(ctx, patientID, limit, offset)
}
