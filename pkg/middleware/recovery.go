package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/response"
)

// Recovery turns a handler panic into an ErrInternal response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Panic recovered",
					"path", c.Request.URL.Path,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
				response.Fail(c, errno.ErrInternal)
			}
		}()
		c.Next()
	}
}
