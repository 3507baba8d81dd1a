package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDKey    = "sessionId"
	sessionHeader   = "X-Session-Id"
	maxSessionIDLen = 64
)

// Session binds each request to an anonymous client session. Clients send the id they
// were issued in X-Session-Id; requests without one get a fresh id echoed back in the
// same header.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		id := strings.TrimSpace(c.GetHeader(sessionHeader))
		if id == "" || len(id) > maxSessionIDLen || strings.ContainsAny(id, " \t\r\n") {
			id = uuid.NewString()
			c.Set("sessionIssued", true)
		}
		c.Set(sessionIDKey, id)
		c.Writer.Header().Set(sessionHeader, id)
		c.Next()
	}
}

// SessionIDFromContext fetches the session ID set by the Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
