// Package seed plants development data: a few hospitals with doctors, a
// pharmacy shelf and one account per role.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/careportal/careportal/internal/domain/catalog"
	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/domain/identity"
	"github.com/careportal/careportal/internal/platform/auth"
)

type hospitalSeed struct {
	name    string
	address string
	contact string
	doctors []doctorSeed
}

type doctorSeed struct {
	name           string
	specialization string
	description    string
	experience     int
	qualifications string
	availability   catalog.WeeklyAvailability
}

var weekdayHours = catalog.WeeklyAvailability{
	"monday":    {"09:00", "10:00", "11:00", "14:00", "15:00"},
	"tuesday":   {"09:00", "10:00", "11:00", "14:00", "15:00"},
	"wednesday": {"09:00", "10:00", "11:00", "14:00", "15:00"},
	"thursday":  {"09:00", "10:00", "11:00", "14:00", "15:00"},
	"friday":    {"09:00", "10:00", "11:00", "14:00", "15:00"},
}

var specialistHours = catalog.WeeklyAvailability{
	"monday":    {"10:00", "11:00", "15:00", "16:00"},
	"wednesday": {"10:00", "11:00", "15:00", "16:00"},
	"friday":    {"10:00", "11:00", "15:00", "16:00"},
}

var hospitals = []hospitalSeed{
	{
		name: "City General Hospital", address: "123 Main St, Metropolis", contact: "123-456-7890",
		doctors: []doctorSeed{
			{"Dr. Meera Nair", "General Medicine", "Experienced general physician", 8, "MBBS, MD - General Medicine", weekdayHours},
			{"Dr. Arjun Rao", "Cardiology", "Cardiologist with 10+ years of experience", 12, "MBBS, MD - Cardiology", specialistHours},
		},
	},
	{
		name: "Sunrise Medical Center", address: "456 Elm St, Springfield", contact: "987-654-3210",
		doctors: []doctorSeed{
			{"Dr. Kavya Menon", "Dermatology", "Skin and allergy specialist", 6, "MBBS, MD - Dermatology", specialistHours},
			{"Dr. Vikram Shah", "Orthopaedics", "Joint replacement and sports injuries", 15, "MBBS, MS - Orthopaedics", weekdayHours},
		},
	},
}

type medicineSeed struct {
	name         string
	use          string
	dosageForm   string
	category     string
	price        float64
	stock        int
	prescription bool
}

var medicines = []medicineSeed{
	{"Paracetamol", "Analgesic / Antipyretic", "Tablet 500 mg", "Pain Relief", 15.00, 200, false},
	{"Ibuprofen", "NSAID (pain, inflammation)", "Tablet 400 mg", "Pain Relief", 30.00, 180, false},
	{"Acetylsalicylic Acid (Aspirin)", "Antiplatelet / Analgesic", "Tablet 150 mg dispersible", "Pain Relief", 25.00, 150, false},
	{"Diclofenac Sodium", "NSAID", "Tablet 50 mg", "Pain Relief", 35.00, 120, true},
	{"Tramadol", "Moderate-severe pain", "Capsule 50 mg", "Pain Relief", 85.00, 30, true},
	{"Chlorpheniramine Maleate", "Antihistamine (allergy)", "Tablet 4 mg", "Allergy", 20.00, 100, false},
	{"Prednisolone", "Systemic corticosteroid", "Tablet 5 mg", "Steroid", 40.00, 80, true},
	{"Lignocaine + Adrenaline", "Local anaesthetic", "Injection 2%", "Anaesthetic", 45.00, 50, true},
}

type accountSeed struct {
	name     string
	email    string
	password string
	role     string
}

var accounts = []accountSeed{
	{"Asha Patient", "patient@careportal.dev", "patient123", auth.RolePatient},
	{"Ben Pharmacist", "pharmacist@careportal.dev", "pharmacy123", auth.RolePharmacist},
	{"Carol Employee", "employee@careportal.dev", "employee123", auth.RoleEmployee},
	{"Dana Admin", "admin@careportal.dev", "admin1234", auth.RoleAdmin},
}

// Run plants the seed set through the domain services so the usual
// validation applies. Re-running against a seeded database is fine:
// duplicate accounts are skipped.
func Run(ctx context.Context, catalogSvc *catalog.Service, identitySvc *identity.Service, log zerolog.Logger) error {
	for _, hs := range hospitals {
		h := &catalog.Hospital{Name: hs.name, Address: hs.address, Contact: hs.contact}
		if err := catalogSvc.CreateHospital(ctx, h); err != nil {
			return fmt.Errorf("seed hospital %s: %w", hs.name, err)
		}
		for _, ds := range hs.doctors {
			desc, quals, exp := ds.description, ds.qualifications, ds.experience
			d := &catalog.Doctor{
				HospitalID:     h.ID,
				Name:           ds.name,
				Specialization: ds.specialization,
				Description:    &desc,
				Experience:     &exp,
				Qualifications: &quals,
				Availability:   ds.availability,
			}
			if err := catalogSvc.CreateDoctor(ctx, d); err != nil {
				return fmt.Errorf("seed doctor %s: %w", ds.name, err)
			}
		}
		log.Info().Str("hospital", hs.name).Int("doctors", len(hs.doctors)).Msg("seeded hospital")
	}

	for _, ms := range medicines {
		use, form, cat := ms.use, ms.dosageForm, ms.category
		m := &catalog.Medicine{
			Name:                 ms.name,
			Use:                  &use,
			DosageForm:           &form,
			Category:             &cat,
			Price:                ms.price,
			Stock:                ms.stock,
			PrescriptionRequired: ms.prescription,
		}
		if err := catalogSvc.CreateMedicine(ctx, m); err != nil {
			return fmt.Errorf("seed medicine %s: %w", ms.name, err)
		}
	}
	log.Info().Int("medicines", len(medicines)).Msg("seeded pharmacy shelf")

	for _, as := range accounts {
		req := identity.RegisterRequest{Name: as.name, Email: as.email, Password: as.password}
		var err error
		if as.role == auth.RolePatient {
			_, err = identitySvc.Register(ctx, req)
		} else {
			_, err = identitySvc.CreateStaff(ctx, req, as.role)
		}
		if errors.Is(err, errs.ErrEmailTaken) {
			log.Debug().Str("email", as.email).Msg("account already seeded")
			continue
		}
		if err != nil {
			return fmt.Errorf("seed account %s: %w", as.email, err)
		}
	}
	log.Info().Int("accounts", len(accounts)).Msg("seeded accounts")
	return nil
}
