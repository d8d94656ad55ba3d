package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/errs"
)

type Service struct {
	hospitals HospitalRepository
	doctors   DoctorRepository
	medicines MedicineRepository
}

func NewService(hospitals HospitalRepository, doctors DoctorRepository, medicines MedicineRepository) *Service {
	return &Service{hospitals: hospitals, doctors: doctors, medicines: medicines}
}

// -- Hospitals --

func (s *Service) CreateHospital(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}
	if h.Address == "" {
		return fmt.Errorf("address is required: %w", errs.ErrInvalidInput)
	}
	return s.hospitals.Create(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, name string, limit, offset int) ([]*Hospital, int, error) {
	if name != "" {
		return s.hospitals.SearchByName(ctx, name, limit, offset)
	}
	return s.hospitals.List(ctx, limit, offset)
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}
	if d.Specialization == "" {
		return fmt.Errorf("specialization is required: %w", errs.ErrInvalidInput)
	}
	if _, err := s.hospitals.GetByID(ctx, d.HospitalID); err != nil {
		return err
	}
	if err := d.Availability.Validate(); err != nil {
		return err
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctorsByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.ListByHospital(ctx, hospitalID, limit, offset)
}

func (s *Service) SearchDoctorsByHospitalName(ctx context.Context, hospitalName string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.SearchByHospitalName(ctx, hospitalName, limit, offset)
}

func (s *Service) UpdateDoctorAvailability(ctx context.Context, id uuid.UUID, availability WeeklyAvailability) error {
	if err := availability.Validate(); err != nil {
		return err
	}
	return s.doctors.UpdateAvailability(ctx, id, availability)
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}
	if m.Price < 0 {
		return fmt.Errorf("price must not be negative: %w", errs.ErrInvalidInput)
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %w", errs.ErrInvalidInput)
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if m.Price < 0 {
		return fmt.Errorf("price must not be negative: %w", errs.ErrInvalidInput)
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %w", errs.ErrInvalidInput)
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.Delete(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, limit, offset)
}

// DecrementStock reserves qty units as a single conditional write; callers
// decide what an unapplied decrement means.
func (s *Service) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (int, bool, error) {
	if qty < 1 {
		return 0, false, fmt.Errorf("quantity must be at least 1: %w", errs.ErrInvalidInput)
	}
	return s.medicines.DecrementStock(ctx, id, qty)
}

// IncrementStock returns qty units, used when an order is cancelled.
func (s *Service) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", errs.ErrInvalidInput)
	}
	return s.medicines.IncrementStock(ctx, id, qty)
}
