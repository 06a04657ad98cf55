package item

import (
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("item not found")
	ErrOwnerNotFound     = apperror.NotFound("owner not found")
	ErrNotOwner          = apperror.Forbidden("only the owner can modify this item")
	ErrEmptyName         = apperror.InvalidArgument("name cannot be empty")
	ErrEmptyDescription  = apperror.InvalidArgument("description cannot be empty")
	ErrEmptyComment      = apperror.InvalidArgument("comment text cannot be empty")
	ErrNoFinishedBooking = apperror.InvalidState("user has no finished booking of this item")
)

// Item is a thing an owner lends out.
type Item struct {
	ID          string
	Name        string
	Description string
	Available   bool
	OwnerID     string
	CreatedAt   time.Time
}

// Comment is feedback left by a user who has borrowed the item.
type Comment struct {
	ID         string
	ItemID     string
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}
