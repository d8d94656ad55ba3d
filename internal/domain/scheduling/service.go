package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/billing"
	"github.com/careportal/careportal/internal/domain/catalog"
	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/db"
)

// DoctorDirectory is the slice of the catalog the allocator needs.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*catalog.Doctor, error)
}

// Biller creates the appointment charge inside the booking transaction.
type Biller interface {
	CreateAppointmentBill(ctx context.Context, patientID, appointmentID uuid.UUID, amount float64, description string) (*billing.Bill, error)
}

type Service struct {
	appointments AppointmentRepository
	doctors      DoctorDirectory
	biller       Biller
	tx           db.TxRunner
	fee          float64
}

func NewService(appointments AppointmentRepository, doctors DoctorDirectory, biller Biller, tx db.TxRunner, fee float64) *Service {
	return &Service{appointments: appointments, doctors: doctors, biller: biller, tx: tx, fee: fee}
}

// SlotRequest is what a patient submits to book a visit.
type SlotRequest struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	PaymentMethod  *string   `json:"payment_method,omitempty"`
	Symptoms       *string   `json:"symptoms,omitempty"`
	MedicalHistory *string   `json:"medical_history,omitempty"`
}

// RequestSlot books (doctor, date, time) for the patient. The appointment
// insert and its APPOINTMENT bill commit together; when two patients race
// for the same slot the unique index lets exactly one insert through and
// the other caller gets ErrSlotTaken.
func (s *Service) RequestSlot(ctx context.Context, patientID uuid.UUID, req SlotRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required: %w", errs.ErrInvalidInput)
	}
	weekday, err := Weekday(req.Date)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctors.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Availability.Contains(weekday, req.Time) {
		return nil, fmt.Errorf("doctor is not available %s at %s: %w", weekday, req.Time, errs.ErrInvalidInput)
	}

	a := &Appointment{
		ID:             uuid.New(),
		PatientID:      patientID,
		DoctorID:       doctor.ID,
		HospitalID:     doctor.HospitalID,
		Date:           req.Date,
		Time:           req.Time,
		Status:         StatusBooked,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		Amount:         s.fee,
		Symptoms:       req.Symptoms,
		MedicalHistory: req.MedicalHistory,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		desc := fmt.Sprintf("Consultation with %s on %s %s", doctor.Name, a.Date, a.Time)
		_, err := s.biller.CreateAppointmentBill(ctx, patientID, a.ID, s.fee, desc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CancelAppointment releases the slot. Cancelling an already-cancelled
// appointment is a no-op; a completed visit cannot be cancelled.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Cancelled() {
		return a, nil
	}
	if !canTransition(a.Status, StatusCancelled) {
		return nil, fmt.Errorf("appointment is %s: %w", a.Status, errs.ErrAlreadyFinalized)
	}
	flipped, err := s.appointments.UpdateStatus(ctx, id, a.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// Lost a race with another status change; re-read and re-judge.
		return s.CancelAppointment(ctx, id)
	}
	return s.appointments.GetByID(ctx, id)
}

// UpdateStatus moves an appointment along BOOKED→CONFIRMED→COMPLETED.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to string) (*Appointment, error) {
	if to != StatusConfirmed && to != StatusCompleted {
		return nil, fmt.Errorf("invalid target status %q: %w", to, errs.ErrInvalidInput)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == to {
		return a, nil
	}
	if !canTransition(a.Status, to) {
		return nil, fmt.Errorf("cannot move %s appointment to %s: %w", a.Status, to, errs.ErrAlreadyFinalized)
	}
	if _, err := s.appointments.UpdateStatus(ctx, id, a.Status, to); err != nil {
		return nil, err
	}
	return s.appointments.GetByID(ctx, id)
}

// AvailableTimes lists the doctor's open slots for a date: the weekday
// availability minus times held by non-cancelled appointments. Advisory
// only; RequestSlot re-checks under the unique index.
func (s *Service) AvailableTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	weekday, err := Weekday(date)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	booked, err := s.appointments.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}
	open := []string{}
	for _, t := range doctor.Availability.TimesFor(weekday) {
		if !taken[t] {
			open = append(open, t)
		}
	}
	return open, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, date string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, date, limit, offset)
}

// MarkVisitPaid mirrors the bill settlement onto the appointment row.
func (s *Service) MarkVisitPaid(ctx context.Context, id uuid.UUID) error {
	return s.appointments.SetPaymentStatus(ctx, id, PaymentPaid)
}
