package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/evorag/pkg/response"
)

// HeaderXRequestID is the request id header.
const HeaderXRequestID = "X-Request-ID"

// RequestID reuses the incoming X-Request-ID or generates one, echoes it in
// the response header and stores it under response.RequestIDKey.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderXRequestID)
		if id == "" {
			id = generateRequestID()
		}
		c.Header(HeaderXRequestID, id)
		c.Set(response.RequestIDKey, id)
		c.Next()
	}
}

// generateRequestID generates a random request ID.
func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
