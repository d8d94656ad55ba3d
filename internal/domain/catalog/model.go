package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Hospital maps to the hospital table. Reference data, immutable after
// seeding apart from contact updates.
type Hospital struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Contact   string    `db:"contact" json:"contact"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Weekday names accepted in a doctor's availability, as stored and as sent
// by clients. Lowercase by convention.
var weekdayNames = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true, "sunday": true,
}

// WeeklyAvailability maps a weekday name to the doctor's bookable start
// times for that day ("HH:MM", 24-hour). It is static reference data: a
// booking does not remove a time from the map, the scheduling domain's
// conflict check decides whether a concrete date/time is still free.
type WeeklyAvailability map[string][]string

// Validate rejects unknown weekday names, unparseable times, and
// duplicate times within a day.
func (wa WeeklyAvailability) Validate() error {
	for day, times := range wa {
		if !weekdayNames[day] {
			return fmt.Errorf("unknown weekday %q", day)
		}
		seen := make(map[string]bool, len(times))
		for _, tm := range times {
			if _, err := time.Parse("15:04", tm); err != nil {
				return fmt.Errorf("invalid time %q for %s", tm, day)
			}
			if seen[tm] {
				return fmt.Errorf("duplicate time %q for %s", tm, day)
			}
			seen[tm] = true
		}
	}
	return nil
}

// TimesFor returns the sorted times for a weekday. The weekday is the
// lowercase English name, e.g. time.Monday.String() lowered.
func (wa WeeklyAvailability) TimesFor(weekday string) []string {
	times := wa[weekday]
	out := make([]string, len(times))
	copy(out, times)
	sort.Strings(out)
	return out
}

// Contains reports whether tm is a bookable start time on the weekday.
func (wa WeeklyAvailability) Contains(weekday, tm string) bool {
	for _, t := range wa[weekday] {
		if t == tm {
			return true
		}
	}
	return false
}

// Doctor maps to the doctor table.
type Doctor struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	HospitalID     uuid.UUID          `db:"hospital_id" json:"hospital_id"`
	Name           string             `db:"name" json:"name"`
	Specialization string             `db:"specialization" json:"specialization"`
	Description    *string            `db:"description" json:"description,omitempty"`
	Experience     *int               `db:"experience" json:"experience,omitempty"`
	Qualifications *string            `db:"qualifications" json:"qualifications,omitempty"`
	Availability   WeeklyAvailability `db:"availability" json:"availability"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// Medicine maps to the medicine table. Stock is mutated only through the
// conditional updates driven by the pharmacy domain.
type Medicine struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Use                  *string   `db:"use" json:"use,omitempty"`
	DosageForm           *string   `db:"dosage_form" json:"dosage_form,omitempty"`
	Category             *string   `db:"category" json:"category,omitempty"`
	Manufacturer         *string   `db:"manufacturer" json:"manufacturer,omitempty"`
	Price                float64   `db:"price" json:"price"`
	Stock                int       `db:"stock" json:"stock"`
	PrescriptionRequired bool      `db:"prescription_required" json:"prescription_required"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
