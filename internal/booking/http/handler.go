package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/item-sharing-backend/internal/auth"
	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/request"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/response"
)

// settleTimeout bounds recording the outcome of a create after the client may have gone away.
const settleTimeout = 2 * time.Second

type Handler struct {
	service booking.Service
	idem    idempotency.Store
}

// NewHandler creates the booking handler. idem may be nil, which disables Idempotency-Key support.
func NewHandler(service booking.Service, idem idempotency.Store) *Handler {
	return &Handler{
		service: service,
		idem:    idem,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	userID := auth.GetUserID(c)
	ctx := c.Request.Context()

	var idemKey, fingerprint string
	if key := c.GetHeader(idempotency.Header); key != "" && h.idem != nil {
		idemKey = fmt.Sprintf(idempotency.KeyBookingCreate, userID, key)
		fingerprint = body.Fingerprint()

		existing, reserved, err := h.idem.Reserve(ctx, idemKey, fingerprint)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !reserved {
			h.replay(c, userID, fingerprint, existing)
			return
		}
	}

	b, err := h.service.Create(ctx, booking.CreateRequest{
		UserID:    userID,
		ItemID:    body.ItemID,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
	})

	if idemKey != "" {
		h.settle(ctx, idemKey, fingerprint, b, err)
	}

	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// replay answers a repeated create with the booking produced by the first request.
func (h *Handler) replay(c *gin.Context, userID, fingerprint string, existing idempotency.Entry) {
	if !existing.Matches(fingerprint) {
		response.Error(c, idempotency.ErrKeyReused)
		return
	}
	if existing.Pending() {
		response.Error(c, idempotency.ErrInFlight)
		return
	}

	b, err := h.service.Get(c.Request.Context(), userID, existing.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// settle records the created booking id under key, or frees key when creation failed.
// It runs detached from the request so a client that disconnects mid-create can still retry.
func (h *Handler) settle(ctx context.Context, key, fingerprint string, b *booking.Booking, createErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	var err error
	if createErr != nil {
		err = h.idem.Release(ctx, key)
	} else {
		err = h.idem.Complete(ctx, key, fingerprint, b.ID)
	}
	if err != nil {
		log.Printf("warning: idempotency key %s not settled: %v", key, err)
	}
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.Get(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// ListByBooker lists the bookings made by the caller.
func (h *Handler) ListByBooker(c *gin.Context) {
	h.list(c, h.service.ListByBooker)
}

// ListByOwner lists the bookings of items owned by the caller.
func (h *Handler) ListByOwner(c *gin.Context) {
	h.list(c, h.service.ListByOwner)
}

func (h *Handler) list(c *gin.Context, fetch func(context.Context, booking.ListRequest) ([]*booking.Booking, error)) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	bookings, err := fetch(c.Request.Context(), booking.ListRequest{
		UserID: auth.GetUserID(c),
		State:  req.State,
		From:   req.From,
		Size:   req.Size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingListResponse(bookings))
}

// Decide approves or rejects a waiting booking. Only the item owner may call it.
func (h *Handler) Decide(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	var query DecideBookingRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, "approved must be true or false", err)
		return
	}

	b, err := h.service.Decide(c.Request.Context(), auth.GetUserID(c), uri.ID, *query.Approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetUserID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusOK)
}
