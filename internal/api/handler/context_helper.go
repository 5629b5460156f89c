package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sank902/Campus-connect/internal/access"
	"github.com/sank902/Campus-connect/pkg/response"
)

// MustGetPrincipal 从 Gin 上下文中提取 JWT 中间件注入的身份。
// 如果 user_id 缺失，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetPrincipal(c *gin.Context) (access.Principal, bool) {
	id := c.GetString("user_id")
	if id == "" {
		response.Unauthorized(c, 10002, "Not authenticated")
		return access.Principal{}, false
	}
	return access.Principal{
		ID:    id,
		Name:  c.GetString("user_name"),
		Email: c.GetString("user_email"),
		Role:  c.GetString("role"),
	}, true
}

// tokenMeta 当前请求 Token 的 jti 与过期时间
func tokenMeta(c *gin.Context) (string, time.Time) {
	return c.GetString("token_jti"), c.GetTime("token_exp")
}
