package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/service"
	"github.com/sank902/Campus-connect/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register 用户注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Invalid registration data", err.Error())
		return
	}

	if _, err := h.authSvc.Register(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.BadRequest(c, 11002, "User already exists")
			return
		}
		if errors.Is(err, service.ErrPasswordTooLong) {
			response.BadRequest(c, 10001, "Password must be at most 72 bytes")
			return
		}
		response.InternalError(c)
		return
	}

	response.Message(c, http.StatusCreated, "User registered successfully")
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Email and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.BadRequest(c, 11001, "Invalid credentials")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout 用户登出，当前 Token 在剩余有效期内失效
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}
	response.Message(c, http.StatusOK, "Logged out")
}

// Me 当前登录用户
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	response.OK(c, h.authSvc.CurrentUser(p))
}
