package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPlaced    = "PLACED"
	StatusConfirmed = "CONFIRMED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

// Order is a patient's purchase of a single medicine. Unit price and total
// are captured at placement time so later catalog price changes do not
// rewrite history.
type Order struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicineID      uuid.UUID `db:"medicine_id" json:"medicine_id"`
	MedicineName    string    `db:"medicine_name" json:"medicine_name"`
	Quantity        int       `db:"quantity" json:"quantity"`
	UnitPrice       float64   `db:"unit_price" json:"unit_price"`
	TotalAmount     float64   `db:"total_amount" json:"total_amount"`
	PaymentMethod   *string   `db:"payment_method" json:"payment_method,omitempty"`
	PrescriptionRef *string   `db:"prescription_ref" json:"prescription_ref,omitempty"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (o *Order) Cancelled() bool { return o.Status == StatusCancelled }

var validStatusTransitions = map[string]map[string]bool{
	StatusPlaced:    {StatusConfirmed: true, StatusDelivered: true, StatusCancelled: true},
	StatusConfirmed: {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func canTransition(from, to string) bool {
	return validStatusTransitions[from][to]
}
