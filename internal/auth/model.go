package auth

import (
	"time"

	"github.com/google/uuid"
)

// Roles a non-superuser caller can hold.
const (
	RoleReader   = "reader"
	RoleOperator = "operator"
)

// User represents a row in the users table.
type User struct {
	ID           uuid.UUID
	Name         string
	Role         string // empty for superuser
	IsSuperuser  bool
	ApiKeyPrefix string
	ApiKeyHash   string
	CreatedAt    time.Time
	RevokedAt    *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID      uuid.UUID
	UserName    string
	Role        string
	IsSuperuser bool
}

// CanWrite reports whether the identity may change offers and databases.
func (i *Identity) CanWrite() bool {
	return i != nil && (i.IsSuperuser || i.Role == RoleOperator)
}

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	return role == RoleReader || role == RoleOperator
}
