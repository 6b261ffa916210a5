package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when a user record is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserRevoked is returned when revoking a user whose key is already revoked.
	ErrUserRevoked = errors.New("user is revoked")
)

// UserFilter narrows List. The zero value lists every user, revoked ones
// included.
type UserFilter struct {
	// Role matches reader or operator callers; the superuser has no role and
	// is only listed when Role is empty.
	Role       string
	ActiveOnly bool
}

// UserRepository stores API callers and their hashed keys.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByPrefix returns the active users whose key starts with prefix.
	FindByPrefix(ctx context.Context, prefix string) ([]User, error)
	List(ctx context.Context, filter UserFilter) ([]User, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
}
