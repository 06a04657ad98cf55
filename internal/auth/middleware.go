package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDHeader carries the id of the calling user, set by the gateway in front of this service.
const UserIDHeader = "X-Sharer-User-Id"

// SharerRequired is a Gin middleware that reads the caller id from the X-Sharer-User-Id header.
// Whether the user exists is checked by the services, not here.
func SharerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing " + UserIDHeader + " header",
			})
			return
		}

		id, err := uuid.Parse(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid " + UserIDHeader + " header",
			})
			return
		}

		// Store user info into Gin context for later handlers.
		c.Set(userIDKey, id.String())

		c.Next()
	}
}
