package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/auth"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%s: %w", u.Email, errs.ErrEmailTaken)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", errs.ErrNotFound)
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", errs.ErrNotFound)
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, name string, phone *string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user: %w", errs.ErrNotFound)
	}
	u.Name = name
	u.Phone = phone
	return nil
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService() (*Service, *mockUserRepo) {
	repo := newMockUserRepo()
	return NewService(repo, testSecret, time.Hour), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Asha", Email: "Asha@Example.com", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != auth.RolePatient {
		t.Errorf("expected PATIENT role, got %s", u.Role)
	}
	if u.Email != "asha@example.com" {
		t.Errorf("expected lowercased email, got %s", u.Email)
	}
	if u.PasswordHash == "correct horse" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	cases := []RegisterRequest{
		{Email: "a@b.c", Password: "long enough"},
		{Name: "Asha", Email: "not-an-email", Password: "long enough"},
		{Name: "Asha", Email: "a@b.c", Password: "short"},
	}
	for i, req := range cases {
		if _, err := svc.Register(context.Background(), req); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("case %d: expected invalid input error, got %v", i, err)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	req := RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "correct horse"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, errs.ErrEmailTaken) {
		t.Errorf("expected email taken error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logged, token, err := svc.Login(context.Background(), "asha@example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged.ID != u.ID {
		t.Error("expected the registered user back")
	}

	claims := &auth.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return testSecret, nil
	})
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != u.ID.String() || claims.Role != auth.RolePatient {
		t.Errorf("unexpected claims: subject=%s role=%s", claims.Subject, claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "correct horse",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err := svc.Login(context.Background(), "asha@example.com", "battery staple")
	if err == nil {
		t.Fatal("expected error for wrong password")
	}
	_, _, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if unknownErr == nil {
		t.Fatal("expected error for unknown email")
	}
	// Unknown email and wrong password look identical.
	if !strings.Contains(err.Error(), "invalid credentials") || !strings.Contains(unknownErr.Error(), "invalid credentials") {
		t.Errorf("credential errors must not leak which part failed: %v / %v", err, unknownErr)
	}
}

func TestCreateStaff(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.CreateStaff(context.Background(), RegisterRequest{
		Name: "Ben", Email: "ben@example.com", Password: "pharmacy123",
	}, auth.RolePharmacist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != auth.RolePharmacist {
		t.Errorf("expected PHARMACIST, got %s", u.Role)
	}
	if _, err := svc.CreateStaff(context.Background(), RegisterRequest{
		Name: "Eve", Email: "eve@example.com", Password: "password1",
	}, auth.RolePatient); !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("expected invalid input error for PATIENT staff role, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	phone := "555-0102"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, "Asha K", &phone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Asha K" || updated.Phone == nil || *updated.Phone != phone {
		t.Errorf("profile not updated: %+v", updated)
	}
}
