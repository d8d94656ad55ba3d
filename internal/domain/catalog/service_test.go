package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/errs"
)

// -- Mock Repositories --

type mockHospitalRepo struct {
	hospitals map[uuid.UUID]*Hospital
}

func newMockHospitalRepo() *mockHospitalRepo {
	return &mockHospitalRepo{hospitals: make(map[uuid.UUID]*Hospital)}
}

func (m *mockHospitalRepo) Create(_ context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.CreatedAt = time.Now()
	h.UpdatedAt = time.Now()
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockHospitalRepo) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, fmt.Errorf("hospital: %w", errs.ErrNotFound)
	}
	return h, nil
}

func (m *mockHospitalRepo) List(_ context.Context, limit, offset int) ([]*Hospital, int, error) {
	var result []*Hospital
	for _, h := range m.hospitals {
		result = append(result, h)
	}
	return result, len(result), nil
}

func (m *mockHospitalRepo) SearchByName(_ context.Context, name string, limit, offset int) ([]*Hospital, int, error) {
	var result []*Hospital
	for _, h := range m.hospitals {
		if strings.Contains(strings.ToLower(h.Name), strings.ToLower(name)) {
			result = append(result, h)
		}
	}
	return result, len(result), nil
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("doctor: %w", errs.ErrNotFound)
	}
	return d, nil
}

func (m *mockDoctorRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if d.HospitalID == hospitalID {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (m *mockDoctorRepo) SearchByHospitalName(_ context.Context, _ string, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		result = append(result, d)
	}
	return result, len(result), nil
}

func (m *mockDoctorRepo) UpdateAvailability(_ context.Context, id uuid.UUID, availability WeeklyAvailability) error {
	d, ok := m.doctors[id]
	if !ok {
		return fmt.Errorf("doctor: %w", errs.ErrNotFound)
	}
	d.Availability = availability
	return nil
}

type mockMedicineRepo struct {
	medicines map[uuid.UUID]*Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (m *mockMedicineRepo) Create(_ context.Context, med *Medicine) error {
	if med.ID == uuid.Nil {
		med.ID = uuid.New()
	}
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, fmt.Errorf("medicine: %w", errs.ErrNotFound)
	}
	return med, nil
}

func (m *mockMedicineRepo) Update(_ context.Context, med *Medicine) error {
	if _, ok := m.medicines[med.ID]; !ok {
		return fmt.Errorf("medicine: %w", errs.ErrNotFound)
	}
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.medicines, id)
	return nil
}

func (m *mockMedicineRepo) List(_ context.Context, limit, offset int) ([]*Medicine, int, error) {
	var result []*Medicine
	for _, med := range m.medicines {
		result = append(result, med)
	}
	return result, len(result), nil
}

func (m *mockMedicineRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) (int, bool, error) {
	med, ok := m.medicines[id]
	if !ok {
		return 0, false, fmt.Errorf("medicine: %w", errs.ErrNotFound)
	}
	if med.Stock < qty {
		return med.Stock, false, nil
	}
	med.Stock -= qty
	return med.Stock, true, nil
}

func (m *mockMedicineRepo) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	med, ok := m.medicines[id]
	if !ok {
		return fmt.Errorf("medicine: %w", errs.ErrNotFound)
	}
	med.Stock += qty
	return nil
}

func newTestService() (*Service, *mockHospitalRepo, *mockDoctorRepo, *mockMedicineRepo) {
	hospitals := newMockHospitalRepo()
	doctors := newMockDoctorRepo()
	medicines := newMockMedicineRepo()
	return NewService(hospitals, doctors, medicines), hospitals, doctors, medicines
}

// -- Hospital --

func TestCreateHospital(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := &Hospital{Name: "City General", Address: "12 Main St", Contact: "555-0101"}
	if err := svc.CreateHospital(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestCreateHospital_NameRequired(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := &Hospital{Address: "12 Main St"}
	err := svc.CreateHospital(context.Background(), h)
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected invalid input error, got %v", err)
	}
}

func TestListHospitals_SearchByName(t *testing.T) {
	svc, _, _, _ := newTestService()
	for _, name := range []string{"City General", "Lakeside Clinic"} {
		if err := svc.CreateHospital(context.Background(), &Hospital{Name: name, Address: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	items, total, err := svc.ListHospitals(context.Background(), "lakeside", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 match, got %d", total)
	}
	if items[0].Name != "Lakeside Clinic" {
		t.Errorf("unexpected match: %s", items[0].Name)
	}
}

// -- Doctor --

func TestCreateDoctor(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := &Hospital{Name: "City General", Address: "12 Main St"}
	if err := svc.CreateHospital(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := &Doctor{
		HospitalID:     h.ID,
		Name:           "Dr. Rao",
		Specialization: "Cardiology",
		Availability:   WeeklyAvailability{"monday": {"10:00", "11:00"}},
	}
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateDoctor_UnknownHospital(t *testing.T) {
	svc, _, _, _ := newTestService()
	d := &Doctor{HospitalID: uuid.New(), Name: "Dr. Rao", Specialization: "Cardiology"}
	err := svc.CreateDoctor(context.Background(), d)
	if err == nil {
		t.Error("expected error for unknown hospital")
	}
}

func TestCreateDoctor_InvalidAvailability(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := &Hospital{Name: "City General", Address: "12 Main St"}
	if err := svc.CreateHospital(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := &Doctor{
		HospitalID:     h.ID,
		Name:           "Dr. Rao",
		Specialization: "Cardiology",
		Availability:   WeeklyAvailability{"someday": {"10:00"}},
	}
	if err := svc.CreateDoctor(context.Background(), d); err == nil {
		t.Error("expected error for invalid availability")
	}
}

func TestUpdateDoctorAvailability(t *testing.T) {
	svc, _, doctors, _ := newTestService()
	d := &Doctor{Name: "Dr. Rao", Specialization: "Cardiology"}
	doctors.doctors[uuid.New()] = d
	var id uuid.UUID
	for k := range doctors.doctors {
		id = k
	}
	wa := WeeklyAvailability{"friday": {"14:00"}}
	if err := svc.UpdateDoctorAvailability(context.Background(), id, wa); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Availability.Contains("friday", "14:00") {
		t.Error("availability not updated")
	}
}

// -- Medicine --

func TestCreateMedicine(t *testing.T) {
	svc, _, _, _ := newTestService()
	m := &Medicine{Name: "Paracetamol", Price: 2.5, Stock: 100}
	if err := svc.CreateMedicine(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateMedicine_NegativePrice(t *testing.T) {
	svc, _, _, _ := newTestService()
	m := &Medicine{Name: "Paracetamol", Price: -1}
	if err := svc.CreateMedicine(context.Background(), m); err == nil {
		t.Error("expected error for negative price")
	}
}

func TestCreateMedicine_NegativeStock(t *testing.T) {
	svc, _, _, _ := newTestService()
	m := &Medicine{Name: "Paracetamol", Price: 1, Stock: -5}
	if err := svc.CreateMedicine(context.Background(), m); err == nil {
		t.Error("expected error for negative stock")
	}
}
