package patient

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is the wire shape of a create request. Dates arrive as strings
// so the same normalization applies regardless of client formatting.
type CreateInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ParentName   string `json:"parentName"`
	PhoneNumber  string `json:"phoneNumber"`
	DateOfBirth  string `json:"dateOfBirth"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	MedicalNotes string `json:"medicalNotes"`
	ProfileImage string `json:"profileImage"`
	LastVisit    string `json:"lastVisit"`
}

// OptString is a patch field that records whether its key appeared in the
// payload, so an explicit JSON null is told apart from an absent key: absent
// leaves the stored value untouched, present null or empty clears an
// optional field.
type OptString struct {
	Set   bool
	Value *string
}

func (o *OptString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// normalized maps both null and trimmed-empty to nil, the same transform
// optional columns get on create.
func (o OptString) normalized() *string {
	if o.Value == nil {
		return nil
	}
	return optional(*o.Value)
}

// Patch is the wire shape of an update.
type Patch struct {
	FirstName    OptString `json:"firstName"`
	LastName     OptString `json:"lastName"`
	ParentName   OptString `json:"parentName"`
	PhoneNumber  OptString `json:"phoneNumber"`
	DateOfBirth  OptString `json:"dateOfBirth"`
	Email        OptString `json:"email"`
	Address      OptString `json:"address"`
	MedicalNotes OptString `json:"medicalNotes"`
	ProfileImage OptString `json:"profileImage"`
	LastVisit    OptString `json:"lastVisit"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDay accepts a calendar date or a full timestamp and normalizes it to
// midnight UTC of that day, so equal dates compare equal regardless of the
// client's formatting.
func parseDay(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// optional trims the value and maps empty to nil so optional columns are
// stored as NULL, never as an empty string.
func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	verr := newValidationError()

	p := &Patient{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		ParentName:  strings.TrimSpace(in.ParentName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
	if p.FirstName == "" {
		verr.add("firstName", "is required")
	}
	if p.LastName == "" {
		verr.add("lastName", "is required")
	}
	if p.ParentName == "" {
		verr.add("parentName", "is required")
	}
	if p.PhoneNumber == "" {
		verr.add("phoneNumber", "is required")
	}

	if strings.TrimSpace(in.DateOfBirth) == "" {
		verr.add("dateOfBirth", "is required")
	} else if dob, ok := parseDay(in.DateOfBirth); ok {
		p.DateOfBirth = dob
	} else {
		verr.add("dateOfBirth", "must be a date (YYYY-MM-DD or RFC 3339)")
	}

	p.Email = optional(in.Email)
	p.Address = optional(in.Address)
	p.MedicalNotes = optional(in.MedicalNotes)
	p.ProfileImage = optional(in.ProfileImage)

	if strings.TrimSpace(in.LastVisit) != "" {
		if visit, ok := parseDay(in.LastVisit); ok {
			p.LastVisit = &visit
		} else {
			verr.add("lastVisit", "must be a date (YYYY-MM-DD or RFC 3339)")
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// Update applies a partial patch to an existing record. Fields absent from
// the patch keep their stored values; present date fields go through the
// same normalization as Create, so lastVisit "" or null clears the column.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := newValidationError()

	// Required fields cannot be cleared: present null or empty is rejected.
	setRequired := func(field string, dst *string, src OptString) {
		if !src.Set {
			return
		}
		v := src.normalized()
		if v == nil {
			verr.add(field, "must not be empty")
			return
		}
		*dst = *v
	}
	setRequired("firstName", &p.FirstName, patch.FirstName)
	setRequired("lastName", &p.LastName, patch.LastName)
	setRequired("parentName", &p.ParentName, patch.ParentName)
	setRequired("phoneNumber", &p.PhoneNumber, patch.PhoneNumber)

	if patch.DateOfBirth.Set {
		if v := patch.DateOfBirth.normalized(); v == nil {
			verr.add("dateOfBirth", "must not be empty")
		} else if dob, ok := parseDay(*v); ok {
			p.DateOfBirth = dob
		} else {
			verr.add("dateOfBirth", "must be a date (YYYY-MM-DD or RFC 3339)")
		}
	}

	if patch.Email.Set {
		p.Email = patch.Email.normalized()
	}
	if patch.Address.Set {
		p.Address = patch.Address.normalized()
	}
	if patch.MedicalNotes.Set {
		p.MedicalNotes = patch.MedicalNotes.normalized()
	}
	if patch.ProfileImage.Set {
		p.ProfileImage = patch.ProfileImage.normalized()
	}

	if patch.LastVisit.Set {
		if v := patch.LastVisit.normalized(); v == nil {
			p.LastVisit = nil
		} else if visit, ok := parseDay(*v); ok {
			p.LastVisit = &visit
		} else {
			verr.add("lastVisit", "must be a date (YYYY-MM-DD or RFC 3339)")
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
