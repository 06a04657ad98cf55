package http

import (
	"time"

	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/item-sharing-backend/internal/booking/http"
	"github.com/nekogravitycat/item-sharing-backend/internal/item"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/request"
	userHttp "github.com/nekogravitycat/item-sharing-backend/internal/user/http"
)

// ListItemsRequest defines query parameters for listing the caller's items.
type ListItemsRequest struct {
	request.ListParams
}

type CreateItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Available   *bool  `json:"available" binding:"required"`
}

type UpdateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created"`
}

func NewCommentResponse(cm *item.Comment) CommentResponse {
	return CommentResponse{
		ID:         cm.ID,
		Text:       cm.Text,
		AuthorName: cm.AuthorName,
		CreatedAt:  cm.CreatedAt,
	}
}

type ItemResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Available   bool             `json:"available"`
	Owner       userHttp.UserTag `json:"owner"`
	CreatedAt   time.Time        `json:"created_at"`

	LastBooking *bookingHttp.BookingShortResponse `json:"last_booking"`
	NextBooking *bookingHttp.BookingShortResponse `json:"next_booking"`
}

// ItemDetailResponse is a single item together with all of its comments.
type ItemDetailResponse struct {
	ItemResponse
	Comments []CommentResponse `json:"comments"`
}

func NewItemResponse(it *item.Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		Owner:       userHttp.UserTag{ID: it.OwnerID},
		CreatedAt:   it.CreatedAt,
	}
}

// WithSummary attaches the last and next bookings of the item.
func (r ItemResponse) WithSummary(s booking.Summary) ItemResponse {
	r.LastBooking = bookingHttp.NewBookingShortResponse(s.Last)
	r.NextBooking = bookingHttp.NewBookingShortResponse(s.Next)
	return r
}
