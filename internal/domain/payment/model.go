package payment

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
)

// Payment is one attempt to settle a bill. A bill may accumulate several
// FAILED attempts; the first SUCCESS settles it and later attempts are
// rejected because the bill is no longer UNPAID.
type Payment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	BillID          uuid.UUID  `db:"bill_id" json:"bill_id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	Amount          float64    `db:"amount" json:"amount"`
	Gateway         string     `db:"gateway" json:"gateway"`
	Method          *string    `db:"method" json:"method,omitempty"`
	TransactionID   string     `db:"transaction_id" json:"transaction_id"`
	Status          string     `db:"status" json:"status"`
	GatewayResponse *string    `db:"gateway_response" json:"gateway_response,omitempty"`
	PaidAt          *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Payment) Terminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailed
}

func validGateway(g string) bool {
	return g == GatewayRazorpay || g == GatewayStripe
}

// NewTransactionID mints the reference the gateway echoes back in its
// callback, e.g. TXN_9f86d081884c7d65.
func NewTransactionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "TXN_" + uuid.NewString()[:16]
	}
	return "TXN_" + hex.EncodeToString(buf)
}

// minorUnits converts a decimal amount to the integer form gateways bill
// in (paise, cents).
func minorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
