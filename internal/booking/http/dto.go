package http

import (
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/request"
	userHttp "github.com/nekogravitycat/item-sharing-backend/internal/user/http"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	State string `form:"state,default=ALL"`
}

// DecideBookingRequest carries the owner's decision on a waiting booking.
type DecideBookingRequest struct {
	Approved *bool `form:"approved" binding:"required"`
}

type CreateBookingRequest struct {
	ItemID    string    `json:"item_id" binding:"required,uuid"`
	StartTime time.Time `json:"start" binding:"required"`
	EndTime   time.Time `json:"end" binding:"required"`
}

// Validate performs custom validation for CreateBookingRequest.
func (r *CreateBookingRequest) Validate() error {
	if !r.StartTime.Before(r.EndTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

// Fingerprint identifies the booking asked for, so a reused Idempotency-Key can be told apart from a retry.
func (r *CreateBookingRequest) Fingerprint() string {
	return idempotency.Fingerprint(
		r.ItemID,
		r.StartTime.UTC().Format(time.RFC3339Nano),
		r.EndTime.UTC().Format(time.RFC3339Nano),
	)
}

// ItemTag is the booked item as embedded in a booking response.
type ItemTag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

type BookingResponse struct {
	ID        string           `json:"id"`
	StartTime time.Time        `json:"start"`
	EndTime   time.Time        `json:"end"`
	Status    string           `json:"status"`
	Item      ItemTag          `json:"item"`
	Booker    userHttp.UserTag `json:"booker"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
		Item: ItemTag{
			ID:          b.Item.ID,
			Name:        b.Item.Name,
			Description: b.Item.Description,
			Available:   b.Item.Available,
		},
		Booker:    userHttp.UserTag{ID: b.BookerID, Name: b.BookerName},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func NewBookingListResponse(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	return items
}

// BookingShortResponse is the last/next booking attached to an item.
type BookingShortResponse struct {
	ID        string    `json:"id"`
	BookerID  string    `json:"booker_id"`
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
}

func NewBookingShortResponse(b *booking.Booking) *BookingShortResponse {
	if b == nil {
		return nil
	}
	return &BookingShortResponse{
		ID:        b.ID,
		BookerID:  b.BookerID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}
