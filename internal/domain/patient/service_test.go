package patient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	order    []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	clone := *p
	m.patients[p.ID] = &clone
	m.order = append(m.order, p.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	m.patients[p.ID] = &clone
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]*Patient, error) {
	items := []*Patient{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if p, ok := m.patients[m.order[i]]; ok {
			clone := *p
			items = append(items, &clone)
		}
	}
	return items, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func validInput() CreateInput {
	return CreateInput{
		FirstName:   "Ana",
		LastName:    "Lee",
		ParentName:  "R. Lee",
		PhoneNumber: "555-1000",
		DateOfBirth: "2016-04-02",
	}
}

// -- Create --

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID == uuid.Nil {
		t.Error("expected a generated id")
	}
	if !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("expected createdAt == updatedAt on create, got %v / %v", p.CreatedAt, p.UpdatedAt)
	}

	want := time.Date(2016, 4, 2, 0, 0, 0, 0, time.UTC)
	if !p.DateOfBirth.Equal(want) {
		t.Errorf("expected dateOfBirth %v, got %v", want, p.DateOfBirth)
	}

	if p.Email != nil || p.Address != nil || p.MedicalNotes != nil || p.ProfileImage != nil || p.LastVisit != nil {
		t.Error("expected omitted optional fields to be nil")
	}
}

func TestService_Create_RequiredFields(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{FirstName: "  ", DateOfBirth: "2016-04-02"})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"firstName", "lastName", "parentName", "phoneNumber"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected a message for %s, got %v", field, verr.Fields)
		}
	}
}

func TestService_Create_DateFormats(t *testing.T) {
	svc, _ := newTestService()
	want := time.Date(2019, 3, 7, 0, 0, 0, 0, time.UTC)

	for _, value := range []string{"2019-03-07", "2019-03-07T15:04:05Z"} {
		in := validInput()
		in.DateOfBirth = value
		p, err := svc.Create(context.Background(), in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", value, err)
		}
		if !p.DateOfBirth.Equal(want) {
			t.Errorf("%s: expected midnight UTC %v, got %v", value, want, p.DateOfBirth)
		}
	}
}

func TestService_Create_InvalidDate(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.DateOfBirth = "04/02/2016"

	var verr *ValidationError
	if _, err := svc.Create(context.Background(), in); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_Create_OptionalNormalization(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.Email = "   "
	in.MedicalNotes = "peanut allergy"
	in.LastVisit = "2023-01-10"

	p, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Email != nil {
		t.Errorf("expected blank email to normalize to nil, got %q", *p.Email)
	}
	if p.MedicalNotes == nil || *p.MedicalNotes != "peanut allergy" {
		t.Error("expected medical notes to be kept")
	}
	want := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	if p.LastVisit == nil || !p.LastVisit.Equal(want) {
		t.Errorf("expected lastVisit %v, got %v", want, p.LastVisit)
	}
}

// -- Update --

func optVal(s string) OptString { return OptString{Set: true, Value: &s} }
func optNull() OptString        { return OptString{Set: true} }

func TestService_Update_Partial(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(context.Background(), validInput())

	time.Sleep(2 * time.Millisecond)
	updated, err := svc.Update(context.Background(), created.ID, Patch{PhoneNumber: optVal("555-2000")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.PhoneNumber != "555-2000" {
		t.Errorf("expected updated phone number, got %s", updated.PhoneNumber)
	}
	if updated.FirstName != "Ana" || updated.LastName != "Lee" || updated.ParentName != "R. Lee" {
		t.Error("expected untouched fields to keep their values")
	}
	if !updated.DateOfBirth.Equal(created.DateOfBirth) {
		t.Error("expected dateOfBirth unchanged")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("expected createdAt unchanged by update")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("expected updatedAt to advance, got %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
}

func TestService_Update_EmptyRequiredRejected(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(context.Background(), validInput())

	_, err := svc.Update(context.Background(), created.ID, Patch{FirstName: optVal(" ")})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, _ := svc.Get(context.Background(), created.ID)
	if got.FirstName != "Ana" {
		t.Error("expected rejected update to leave the record unchanged")
	}
}

func TestService_Update_ClearsOptionalField(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.Email = "ana@example.com"
	created, _ := svc.Create(context.Background(), in)

	updated, err := svc.Update(context.Background(), created.ID, Patch{Email: optVal("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Email != nil {
		t.Errorf("expected present-empty email to clear the field, got %q", *updated.Email)
	}

	// Absent field on the next patch leaves the cleared value alone.
	updated, err = svc.Update(context.Background(), created.ID, Patch{PhoneNumber: optVal("555-3000")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Email != nil {
		t.Error("expected email to stay nil when absent from the patch")
	}
}

func TestService_Update_LastVisitRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(context.Background(), validInput())
	want := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

	p, err := svc.Update(context.Background(), created.ID, Patch{LastVisit: optVal("2023-01-10")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LastVisit == nil || !p.LastVisit.Equal(want) {
		t.Fatalf("expected lastVisit %v, got %v", want, p.LastVisit)
	}

	p, err = svc.Update(context.Background(), created.ID, Patch{LastVisit: optVal("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LastVisit != nil {
		t.Fatalf("expected empty lastVisit to clear the field, got %v", p.LastVisit)
	}

	// Clearing an already cleared field is a no-op, not an error.
	p, err = svc.Update(context.Background(), created.ID, Patch{LastVisit: optVal("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LastVisit != nil {
		t.Errorf("expected lastVisit to stay nil, got %v", p.LastVisit)
	}
}

func TestPatch_UnmarshalPresence(t *testing.T) {
	var patch Patch
	if err := json.Unmarshal([]byte(`{"lastVisit":null,"email":"ana@example.com"}`), &patch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !patch.LastVisit.Set || patch.LastVisit.Value != nil {
		t.Errorf("expected lastVisit present as null, got %+v", patch.LastVisit)
	}
	if !patch.Email.Set || patch.Email.Value == nil || *patch.Email.Value != "ana@example.com" {
		t.Errorf("expected email present with a value, got %+v", patch.Email)
	}
	if patch.FirstName.Set {
		t.Error("expected absent key to stay unset")
	}
}

func TestService_Update_NullClearsLastVisit(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.LastVisit = "2023-01-10"
	created, _ := svc.Create(context.Background(), in)

	var patch Patch
	if err := json.Unmarshal([]byte(`{"lastVisit":null}`), &patch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := svc.Update(context.Background(), created.ID, patch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LastVisit != nil {
		t.Errorf("expected explicit null to clear lastVisit, got %v", p.LastVisit)
	}
}

func TestService_Update_NullRequiredRejected(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(context.Background(), validInput())

	_, err := svc.Update(context.Background(), created.ID, Patch{FirstName: optNull()})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, _ := svc.Get(context.Background(), created.ID)
	if got.FirstName != "Ana" {
		t.Error("expected rejected null to leave the record unchanged")
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Update(context.Background(), uuid.New(), Patch{FirstName: optVal("Bo")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// -- Delete / List --

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Create(context.Background(), validInput())

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeated delete, got %v", err)
	}
}

func TestService_List_NewestFirst(t *testing.T) {
	svc, _ := newTestService()

	first, _ := svc.Create(context.Background(), validInput())
	second := validInput()
	second.FirstName = "Bo"
	latest, _ := svc.Create(context.Background(), second)

	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(items))
	}
	if items[0].ID != latest.ID || items[1].ID != first.ID {
		t.Error("expected newest record first")
	}
}
