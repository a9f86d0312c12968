package patient

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no patient exists for the requested id,
// including a delete of an already deleted record.
var ErrNotFound = errors.New("patient not found")

// Patient maps to the patients table. Optional columns are pointers so a
// missing value is stored and served as null, never as an empty string.
type Patient struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"firstName"`
	LastName     string     `db:"last_name" json:"lastName"`
	ParentName   string     `db:"parent_name" json:"parentName"`
	PhoneNumber  string     `db:"phone_number" json:"phoneNumber"`
	DateOfBirth  time.Time  `db:"date_of_birth" json:"dateOfBirth"`
	Email        *string    `db:"email" json:"email"`
	Address      *string    `db:"address" json:"address"`
	MedicalNotes *string    `db:"medical_notes" json:"medicalNotes"`
	ProfileImage *string    `db:"profile_image" json:"profileImage"`
	LastVisit    *time.Time `db:"last_visit" json:"lastVisit"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// ValidationError carries one message per rejected input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid patient: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, msg string) {
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
