package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/item-sharing-backend/internal/auth"
	"github.com/nekogravitycat/item-sharing-backend/internal/booking"
	"github.com/nekogravitycat/item-sharing-backend/internal/item"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/pagination"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/request"
	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/response"
)

type Handler struct {
	service  item.Service
	bookings booking.Service
}

func NewHandler(service item.Service, bookings booking.Service) *Handler {
	return &Handler{
		service:  service,
		bookings: bookings,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	it, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), item.CreateRequest{
		Name:        body.Name,
		Description: body.Description,
		Available:   *body.Available,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewItemResponse(it))
}

// List returns the caller's items, each with its last and next booking when both exist.
func (h *Handler) List(c *gin.Context) {
	var req ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	page, err := pagination.New(req.From, req.Size, pagination.Order{Column: "created_at"}, pagination.Order{Column: "id"})
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	items, total, err := h.service.ListByOwner(ctx, auth.GetUserID(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	summaries, err := h.bookings.SummariesForItems(ctx, ids)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]ItemResponse, len(items))
	for i, it := range items {
		resp[i] = NewItemResponse(it)
		if s, ok := summaries[it.ID]; ok {
			resp[i] = resp[i].WithSummary(s)
		}
	}

	c.JSON(http.StatusOK, response.NewPageResponse(resp, req.From, req.Size, total))
}

// Get returns an item with its comments. Only the owner sees the booking summary.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid item id", err)
		return
	}

	ctx := c.Request.Context()
	callerID := auth.GetUserID(c)
	it, err := h.service.Get(ctx, callerID, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := NewItemResponse(it)

	if it.OwnerID == callerID {
		s, ok, err := h.bookings.SummaryForItem(ctx, it.ID)
		if err != nil {
			response.Error(c, err)
			return
		}
		if ok {
			resp = resp.WithSummary(s)
		}
	}

	comments, err := h.service.ListComments(ctx, it.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail := ItemDetailResponse{
		ItemResponse: resp,
		Comments:     make([]CommentResponse, len(comments)),
	}
	for i, cm := range comments {
		detail.Comments[i] = NewCommentResponse(cm)
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid item id", err)
		return
	}

	var body UpdateItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	it, err := h.service.Update(c.Request.Context(), auth.GetUserID(c), uri.ID, item.UpdateRequest{
		Name:        body.Name,
		Description: body.Description,
		Available:   body.Available,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewItemResponse(it))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid item id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetUserID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) AddComment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid item id", err)
		return
	}

	var body CreateCommentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	cm, err := h.service.AddComment(c.Request.Context(), auth.GetUserID(c), uri.ID, body.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCommentResponse(cm))
}
