package request

import "github.com/gin-gonic/gin"

const idKey = "requestID"

// SetID stores the id of the current request on the context.
func SetID(c *gin.Context, id string) {
	c.Set(idKey, id)
}

// ID returns the id stored by SetID, or "-" when the request has none.
func ID(c *gin.Context) string {
	if id := c.GetString(idKey); id != "" {
		return id
	}
	return "-"
}
