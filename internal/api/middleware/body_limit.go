package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timesheet-recon/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 未声明长度的超限请求在读取时返回 *http.MaxBytesError，由 Handler 统一返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
