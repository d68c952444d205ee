package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timesheet-recon/backend/pkg/response"
)

// Recovery panic 恢复中间件，记录堆栈并返回统一错误响应
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("请求处理 panic",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Stack("stack"),
		)
		response.InternalError(c)
		c.Abort()
	})
}
