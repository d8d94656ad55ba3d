package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists accounts. Create surfaces errs.ErrEmailTaken
// when the email is already registered.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, phone *string) error
}
