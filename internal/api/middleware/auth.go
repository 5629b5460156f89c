package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sank902/Campus-connect/pkg/jwt"
	"github.com/sank902/Campus-connect/pkg/metrics"
	"github.com/sank902/Campus-connect/pkg/response"
)

// TokenDenylist Token 黑名单查询接口（由 pkg/redis 实现）
type TokenDenylist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Token，身份写入上下文。
// 请求头必须恰好由一个空格分成两段且第一段为 Bearer。
// denylist 为 nil 时跳过黑名单检查。
func JWTAuth(jwtMgr *jwt.Manager, denylist TokenDenylist, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.AuthFailed("missing_header")
			response.Unauthorized(c, 10002, "No token, authorization denied")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.AuthFailed("malformed_header")
			response.Unauthorized(c, 10002, "Token is not valid (must be Bearer token)")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "expired_token"
			}
			m.AuthFailed(reason)
			response.Unauthorized(c, 10002, "Token is not valid")
			c.Abort()
			return
		}

		if denylist != nil && claims.ID != "" {
			revoked, err := denylist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis 出错时降级放行
				logger.Warn("查询 Token 黑名单失败", zap.Error(err))
			} else if revoked {
				m.AuthFailed("revoked_token")
				response.Unauthorized(c, 10002, "Token has been revoked")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.User.ID)
		c.Set("user_name", claims.User.Name)
		c.Set("user_email", claims.User.Email)
		c.Set("role", claims.User.Role)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Unauthorized(c, 10002, "Not authenticated")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if role == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "Access denied. Admins only.")
		c.Abort()
	}
}
