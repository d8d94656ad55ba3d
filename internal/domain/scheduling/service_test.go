package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/billing"
	"github.com/careportal/careportal/internal/domain/catalog"
	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/db"
)

// -- Mocks --

// mockAppointmentRepo reproduces the slot uniqueness guarantee: the slots
// map plays the role of the partial unique index, so racing Creates against
// the same key admit exactly one winner.
type mockAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	slots        map[string]uuid.UUID
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		slots:        make(map[string]uuid.UUID),
	}
}

func slotKey(doctorID uuid.UUID, date, tm string) string {
	return doctorID.String() + "|" + date + "|" + tm
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := slotKey(a.DoctorID, a.Date, a.Time)
	if _, held := m.slots[key]; held {
		return fmt.Errorf("slot %s %s: %w", a.Date, a.Time, errs.ErrSlotTaken)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.appointments[a.ID] = a
	m.slots[key] = a.ID
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment: %w", errs.ErrNotFound)
	}
	return a, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return false, fmt.Errorf("appointment: %w", errs.ErrNotFound)
	}
	if a.Status != from {
		return false, nil
	}
	a.Status = to
	if to == StatusCancelled {
		delete(m.slots, slotKey(a.DoctorID, a.Date, a.Time))
	}
	return true, nil
}

func (m *mockAppointmentRepo) SetPaymentStatus(_ context.Context, id uuid.UUID, paymentStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return fmt.Errorf("appointment: %w", errs.ErrNotFound)
	}
	a.PaymentStatus = paymentStatus
	return nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, date string, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Date == date {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) BookedTimes(_ context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var times []string
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Status != StatusCancelled {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

type mockDoctorDirectory struct {
	doctors map[uuid.UUID]*catalog.Doctor
}

func (m *mockDoctorDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*catalog.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("doctor: %w", errs.ErrNotFound)
	}
	return d, nil
}

type mockBiller struct {
	mu    sync.Mutex
	bills map[uuid.UUID]*billing.Bill
}

func (m *mockBiller) CreateAppointmentBill(_ context.Context, patientID, appointmentID uuid.UUID, amount float64, description string) (*billing.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bills[appointmentID]; ok {
		return b, nil
	}
	apptID := appointmentID
	b := &billing.Bill{
		ID:            uuid.New(),
		PatientID:     patientID,
		AppointmentID: &apptID,
		Type:          billing.TypeAppointment,
		Amount:        amount,
		Status:        billing.StatusUnpaid,
	}
	m.bills[appointmentID] = b
	return b, nil
}

func newTestService() (*Service, *mockAppointmentRepo, *mockBiller, *catalog.Doctor) {
	repo := newMockAppointmentRepo()
	biller := &mockBiller{bills: make(map[uuid.UUID]*billing.Bill)}
	doctor := &catalog.Doctor{
		ID:             uuid.New(),
		HospitalID:     uuid.New(),
		Name:           "Dr. Rao",
		Specialization: "Cardiology",
		Availability: catalog.WeeklyAvailability{
			"monday": {"10:00", "11:00", "15:00"},
			"friday": {"09:00"},
		},
	}
	dir := &mockDoctorDirectory{doctors: map[uuid.UUID]*catalog.Doctor{doctor.ID: doctor}}
	svc := NewService(repo, dir, biller, db.RunnerFunc(db.PassThrough), 20.0)
	return svc, repo, biller, doctor
}

// 2026-09-07 is a Monday.
const monday = "2026-09-07"

// -- Tests --

func TestRequestSlot(t *testing.T) {
	svc, _, biller, doctor := newTestService()
	patientID := uuid.New()
	a, err := svc.RequestSlot(context.Background(), patientID, SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusBooked {
		t.Errorf("expected status BOOKED, got %s", a.Status)
	}
	if a.PaymentStatus != PaymentPending {
		t.Errorf("expected payment status PENDING, got %s", a.PaymentStatus)
	}
	if a.Amount != 20.0 {
		t.Errorf("expected amount 20.0, got %v", a.Amount)
	}
	if a.HospitalID != doctor.HospitalID {
		t.Error("expected hospital to come from the doctor record")
	}
	bill, ok := biller.bills[a.ID]
	if !ok {
		t.Fatal("expected a bill for the appointment")
	}
	if bill.Amount != 20.0 || bill.PatientID != patientID {
		t.Errorf("unexpected bill: %+v", bill)
	}
}

func TestRequestSlot_DoctorNotAvailable(t *testing.T) {
	svc, _, _, doctor := newTestService()
	_, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "12:00",
	})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected invalid input error, got %v", err)
	}
	// Right time, wrong weekday.
	_, err = svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: "2026-09-08", Time: "10:00",
	})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestRequestSlot_BadDate(t *testing.T) {
	svc, _, _, doctor := newTestService()
	_, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: "07-09-2026", Time: "10:00",
	})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestRequestSlot_UnknownDoctor(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: uuid.New(), Date: monday, Time: "10:00",
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRequestSlot_SlotTaken(t *testing.T) {
	svc, _, _, doctor := newTestService()
	req := SlotRequest{DoctorID: doctor.ID, Date: monday, Time: "10:00"}
	if _, err := svc.RequestSlot(context.Background(), uuid.New(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.RequestSlot(context.Background(), uuid.New(), req)
	if !errors.Is(err, errs.ErrSlotTaken) {
		t.Errorf("expected slot taken error, got %v", err)
	}
}

// Many patients race for the same slot; exactly one wins and exactly one
// bill exists afterwards.
func TestRequestSlot_ConcurrentSingleWinner(t *testing.T) {
	svc, repo, biller, doctor := newTestService()
	const patients = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	won, lost := 0, 0
	for i := 0; i < patients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
				DoctorID: doctor.ID, Date: monday, Time: "11:00",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, errs.ErrSlotTaken):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
	if lost != patients-1 {
		t.Errorf("expected %d losers, got %d", patients-1, lost)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("expected 1 appointment row, got %d", len(repo.appointments))
	}
	if len(biller.bills) != 1 {
		t.Errorf("expected 1 bill, got %d", len(biller.bills))
	}
}

func TestCancelAppointment_ReleasesSlot(t *testing.T) {
	svc, _, _, doctor := newTestService()
	req := SlotRequest{DoctorID: doctor.ID, Date: monday, Time: "10:00"}
	a, err := svc.RequestSlot(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancelled, err := svc.CancelAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	// The slot is bookable again.
	if _, err := svc.RequestSlot(context.Background(), uuid.New(), req); err != nil {
		t.Errorf("expected rebooking after cancel to succeed, got %v", err)
	}
}

func TestCancelAppointment_Idempotent(t *testing.T) {
	svc, _, _, doctor := newTestService()
	a, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := svc.CancelAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("expected repeat cancel to be a no-op, got %v", err)
	}
	if again.Status != StatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", again.Status)
	}
}

func TestCancelAppointment_CompletedIsFinal(t *testing.T) {
	svc, _, _, doctor := newTestService()
	a, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.CancelAppointment(context.Background(), a.ID)
	if !errors.Is(err, errs.ErrAlreadyFinalized) {
		t.Errorf("expected already finalized error, got %v", err)
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	svc, _, _, doctor := newTestService()
	a, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	done, err := svc.UpdateStatus(context.Background(), a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", done.Status)
	}
	// COMPLETED is terminal.
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed); !errors.Is(err, errs.ErrAlreadyFinalized) {
		t.Errorf("expected already finalized error, got %v", err)
	}
}

func TestAvailableTimes(t *testing.T) {
	svc, _, _, doctor := newTestService()
	if _, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, err := svc.AvailableTimes(context.Background(), doctor.ID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"11:00", "15:00"}
	if len(open) != len(want) {
		t.Fatalf("expected %v, got %v", want, open)
	}
	for i := range want {
		if open[i] != want[i] {
			t.Errorf("expected %v, got %v", want, open)
			break
		}
	}
}

func TestAvailableTimes_CancelledSlotReopens(t *testing.T) {
	svc, _, _, doctor := newTestService()
	a, err := svc.RequestSlot(context.Background(), uuid.New(), SlotRequest{
		DoctorID: doctor.ID, Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, err := svc.AvailableTimes(context.Background(), doctor.ID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(open) != 3 {
		t.Errorf("expected all 3 times open, got %v", open)
	}
}
