package billing

import (
	"time"

	"github.com/google/uuid"
)

// Bill types mirror what they charge for.
const (
	TypeAppointment = "APPOINTMENT"
	TypeHospital    = "HOSPITAL"
	TypeMedicine    = "MEDICINE"
)

const (
	StatusUnpaid = "UNPAID"
	StatusPaid   = "PAID"
)

// Bill is the single ledger row for anything a patient owes. Appointment
// and medicine bills carry the originating row's id; the unique indexes on
// those links are what make bill creation idempotent.
type Bill struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	OrderID       *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	Type          string     `db:"bill_type" json:"type"`
	Amount        float64    `db:"amount" json:"amount"`
	Status        string     `db:"status" json:"status"`
	Description   *string    `db:"description" json:"description,omitempty"`
	PaidAt        *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func validType(t string) bool {
	return t == TypeAppointment || t == TypeHospital || t == TypeMedicine
}
