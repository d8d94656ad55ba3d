package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/auth"
)

type Service struct {
	users      UserRepository
	secret     []byte
	sessionTTL time.Duration
}

func NewService(users UserRepository, secret []byte, sessionTTL time.Duration) *Service {
	return &Service{users: users, secret: secret, sessionTTL: sessionTTL}
}

// RegisterRequest creates a patient account. Staff accounts go through
// CreateStaff instead.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	return s.create(ctx, req, auth.RolePatient)
}

// CreateStaff provisions a PHARMACIST, EMPLOYEE or ADMIN account.
func (s *Service) CreateStaff(ctx context.Context, req RegisterRequest, role string) (*User, error) {
	switch role {
	case auth.RolePharmacist, auth.RoleEmployee, auth.RoleAdmin:
	default:
		return nil, fmt.Errorf("invalid staff role %q: %w", role, errs.ErrInvalidInput)
	}
	return s.create(ctx, req, role)
}

func (s *Service) create(ctx context.Context, req RegisterRequest, role string) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		return nil, fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("a valid email is required: %w", errs.ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", errs.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and issues a session token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", errs.ErrInvalidInput)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", errs.ErrInvalidInput)
	}
	token, err := auth.IssueToken(s.secret, u.ID, u.Role, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, name string, phone *string) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", errs.ErrInvalidInput)
	}
	if err := s.users.UpdateProfile(ctx, id, name, phone); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}
