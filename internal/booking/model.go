package booking

import (
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/pagination"
)

var (
	ErrNotFound         = apperror.NotFound("booking not found")
	ErrReferenceGone    = apperror.NotFound("item or booker no longer exists")
	ErrForbidden        = apperror.Forbidden("user is neither the booker nor the item owner")
	ErrNotItemOwner     = apperror.Forbidden("only the item owner can approve or reject a booking")
	ErrSelfBooking      = apperror.Forbidden("owner cannot book their own item")
	ErrItemUnavailable  = apperror.InvalidState("item is not available for booking")
	ErrAlreadyDecided   = apperror.InvalidState("booking has already been approved or rejected")
	ErrInvalidTimeRange = apperror.InvalidArgument("start time must be before end time")
	ErrStartTimePast    = apperror.InvalidArgument("cannot create booking in the past")
	ErrUnknownState     = apperror.InvalidArgument("Unknown state: UNSUPPORTED_STATUS")
)

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s != StatusWaiting
}

// ItemInfo is the booked item as resolved from the items table when the booking is read.
type ItemInfo struct {
	ID          string
	Name        string
	Description string
	Available   bool
	OwnerID     string
}

type Booking struct {
	ID         string
	ItemID     string
	BookerID   string
	BookerName string
	Item       ItemInfo
	StartTime  time.Time
	EndTime    time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Scope selects whose bookings a list query returns.
type Scope int

const (
	ScopeBooker Scope = iota // bookings made by UserID
	ScopeOwner               // bookings of items owned by UserID
)

type Filter struct {
	Scope    Scope
	UserID   string
	Category Category
	Now      time.Time
	Page     pagination.Page
}

// ListOrder is the fixed ordering of every booking list: newest start first.
var ListOrder = []pagination.Order{
	{Column: "b.start_time", Desc: true},
	{Column: "b.id"},
}
