package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/billing"
	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/db"
)

// Ledger is the slice of billing the reconciler needs.
type Ledger interface {
	GetBill(ctx context.Context, id uuid.UUID) (*billing.Bill, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*billing.Bill, error)
}

// VisitLedger mirrors a settled appointment bill onto the appointment row.
type VisitLedger interface {
	MarkVisitPaid(ctx context.Context, id uuid.UUID) error
}

// Launcher hands a pending charge to the gateway. Fire and forget; the
// outcome comes back through ReportOutcome.
type Launcher interface {
	Charge(transactionID, gateway string, amount float64)
}

type Service struct {
	payments PaymentRepository
	ledger   Ledger
	visits   VisitLedger
	launcher Launcher
	tx       db.TxRunner
}

func NewService(payments PaymentRepository, ledger Ledger, visits VisitLedger, launcher Launcher, tx db.TxRunner) *Service {
	return &Service{payments: payments, ledger: ledger, visits: visits, launcher: launcher, tx: tx}
}

// Customer is the prefill block checkout pages expect.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// InitiateRequest is what a patient submits to start paying a bill.
type InitiateRequest struct {
	BillID   uuid.UUID `json:"bill_id"`
	Gateway  string    `json:"gateway"`
	Method   *string   `json:"method,omitempty"`
	Customer Customer  `json:"customer"`
}

// Presentation is the gateway-specific payload the client feeds to its
// checkout widget. Amounts are in minor units (paise, cents).
type Presentation map[string]interface{}

// InitiatePayment records a PENDING attempt against an unpaid bill and
// returns the checkout payload. The amount always comes from the bill,
// never from the client. A non-nil patientID must match the bill's owner.
func (s *Service) InitiatePayment(ctx context.Context, patientID uuid.UUID, req InitiateRequest) (*Payment, Presentation, error) {
	if !validGateway(req.Gateway) {
		return nil, nil, fmt.Errorf("unsupported gateway %q: %w", req.Gateway, errs.ErrInvalidInput)
	}
	bill, err := s.ledger.GetBill(ctx, req.BillID)
	if err != nil {
		return nil, nil, err
	}
	if patientID != uuid.Nil && bill.PatientID != patientID {
		return nil, nil, fmt.Errorf("bill belongs to another patient: %w", errs.ErrForbidden)
	}
	if bill.Status == billing.StatusPaid {
		return nil, nil, fmt.Errorf("bill is already paid: %w", errs.ErrAlreadyFinalized)
	}

	p := &Payment{
		ID:            uuid.New(),
		BillID:        bill.ID,
		PatientID:     bill.PatientID,
		Amount:        bill.Amount,
		Gateway:       req.Gateway,
		Method:        req.Method,
		TransactionID: NewTransactionID(),
		Status:        StatusPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, nil, err
	}
	if s.launcher != nil {
		s.launcher.Charge(p.TransactionID, p.Gateway, p.Amount)
	}
	return p, s.present(p, bill, req.Customer), nil
}

func (s *Service) present(p *Payment, bill *billing.Bill, cust Customer) Presentation {
	desc := fmt.Sprintf("%s bill %s", bill.Type, bill.ID)
	if bill.Description != nil {
		desc = *bill.Description
	}
	switch p.Gateway {
	case GatewayStripe:
		return Presentation{
			"gateway":        GatewayStripe,
			"transaction_id": p.TransactionID,
			"amount":         minorUnits(p.Amount),
			"currency":       "usd",
			"description":    desc,
			"client_secret":  p.TransactionID + "_secret_" + p.ID.String()[:8],
		}
	default:
		return Presentation{
			"gateway":        GatewayRazorpay,
			"transaction_id": p.TransactionID,
			"amount":         minorUnits(p.Amount),
			"currency":       "INR",
			"name":           "CarePortal",
			"description":    desc,
			"prefill": map[string]string{
				"name":    cust.Name,
				"email":   cust.Email,
				"contact": cust.Contact,
			},
		}
	}
}

// ReportOutcome finalizes a PENDING payment from a gateway callback. A
// SUCCESS settles the bill (and the appointment's payment status, when the
// bill is for a visit) in the same transaction as the payment flip. Repeat
// or conflicting reports for a terminal payment get ErrAlreadyFinalized.
func (s *Service) ReportOutcome(ctx context.Context, transactionID, status string, gatewayResponse *string) (*Payment, error) {
	if status != StatusSuccess && status != StatusFailed {
		return nil, fmt.Errorf("invalid outcome %q: %w", status, errs.ErrInvalidInput)
	}
	p, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if p.Terminal() {
		return nil, fmt.Errorf("payment %s is %s: %w", p.TransactionID, p.Status, errs.ErrAlreadyFinalized)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var paidAt *time.Time
		if status == StatusSuccess {
			now := time.Now()
			paidAt = &now
		}
		flipped, err := s.payments.Finalize(ctx, p.ID, status, gatewayResponse, paidAt)
		if err != nil {
			return err
		}
		if !flipped {
			return fmt.Errorf("payment %s already finalized: %w", p.TransactionID, errs.ErrAlreadyFinalized)
		}
		if status != StatusSuccess {
			return nil
		}
		bill, err := s.ledger.MarkPaid(ctx, p.BillID)
		if err != nil {
			return err
		}
		if bill.AppointmentID != nil {
			return s.visits.MarkVisitPaid(ctx, *bill.AppointmentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.payments.GetByID(ctx, p.ID)
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	return s.payments.GetByTransactionID(ctx, transactionID)
}

func (s *Service) ListByBill(ctx context.Context, billID uuid.UUID) ([]*Payment, error) {
	return s.payments.ListByBill(ctx, billID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.payments.ListByPatient(ctx, patientID, limit, offset)
}
