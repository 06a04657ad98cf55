package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nekogravitycat/item-sharing-backend/internal/pkg/request"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the X-Request-ID header, generating one when the client sent none.
// Responses with a 5xx status are logged together with the errors attached to the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		request.SetID(c, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Printf("request failed request_id=%s method=%s path=%s status=%d errors=%q",
				id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.Errors.String())
		}
	}
}
