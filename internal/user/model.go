package user

import (
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/pagination"
)

var (
	ErrNotFound         = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed = apperror.Conflict("email already used")
	ErrEmailRequired    = apperror.InvalidArgument("email is required")
	ErrNameRequired     = apperror.InvalidArgument("name is required")
)

// User represents a user in the system.
type User struct {
	ID        string // UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Filter defines filter options for listing users.
type Filter struct {
	Email string
	Name  string
	Page  pagination.Page
}
