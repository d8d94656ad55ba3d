package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/errs"
)

const (
	StatusBooked    = "BOOKED"
	StatusConfirmed = "CONFIRMED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
)

const dateLayout = "2006-01-02"

// Appointment is both the visit record and the slot reservation: a partial
// unique index on (doctor_id, date, time) over non-cancelled rows keeps two
// patients out of the same slot.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	HospitalID     uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Date           string    `db:"visit_date" json:"date"`
	Time           string    `db:"visit_time" json:"time"`
	Status         string    `db:"status" json:"status"`
	PaymentStatus  string    `db:"payment_status" json:"payment_status"`
	PaymentMethod  *string   `db:"payment_method" json:"payment_method,omitempty"`
	Amount         float64   `db:"amount" json:"amount"`
	Symptoms       *string   `db:"symptoms" json:"symptoms,omitempty"`
	MedicalHistory *string   `db:"medical_history" json:"medical_history,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Cancelled reports whether the slot has been released.
func (a *Appointment) Cancelled() bool { return a.Status == StatusCancelled }

// ParseDate validates a calendar date in YYYY-MM-DD form.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", errs.ErrInvalidInput)
	}
	return d, nil
}

// Weekday returns the lowercase weekday name for a YYYY-MM-DD date.
func Weekday(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	switch d.Weekday() {
	case time.Monday:
		return "monday", nil
	case time.Tuesday:
		return "tuesday", nil
	case time.Wednesday:
		return "wednesday", nil
	case time.Thursday:
		return "thursday", nil
	case time.Friday:
		return "friday", nil
	case time.Saturday:
		return "saturday", nil
	default:
		return "sunday", nil
	}
}

var validStatusTransitions = map[string]map[string]bool{
	StatusBooked:    {StatusConfirmed: true, StatusCompleted: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func canTransition(from, to string) bool {
	return validStatusTransitions[from][to]
}
