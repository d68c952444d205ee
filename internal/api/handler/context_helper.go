package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timesheet-recon/backend/internal/api/middleware"
	"timesheet-recon/backend/pkg/response"
)

// MustGetUsername 从 Gin 上下文中安全提取 username。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxUsername)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenInfo 当前请求 Token 的 jti 与过期时间
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenID)
	exp, _ := c.Get(middleware.CtxExpiresAt)
	t, _ := exp.(time.Time)
	return jti, t
}

// bindJSON 绑定请求体；超出 BodyLimit 时返回 413，其余为 400
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return false
	}
	return true
}
