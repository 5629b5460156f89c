package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sank902/Campus-connect/config"
	"github.com/sank902/Campus-connect/internal/access"
	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/model"
	"github.com/sank902/Campus-connect/internal/repository"
	pkgerrors "github.com/sank902/Campus-connect/pkg/errors"
	"github.com/sank902/Campus-connect/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailExists        = errors.New("该邮箱已注册")
	ErrPasswordTooLong    = errors.New("密码不能超过 72 字节")
	ErrUnauthenticated    = errors.New("未认证")
)

// AuthService 认证业务接口
type AuthService interface {
	// Register 注册新用户，不签发 Token
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	// Login 校验凭据并签发会话 Token；用户不存在与密码错误返回同一错误
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// Logout 将 Token 加入黑名单直至其自然过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	// CurrentUser 返回 Token 中携带的身份（不访问数据库）
	CurrentUser(p access.Principal) *dto.UserResponse
}

// TokenRevoker Token 黑名单写入接口（由 pkg/redis 实现）
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

type authService struct {
	cfg     *config.Config
	repo    *repository.Repository
	jwtMgr  *jwt.Manager
	revoker TokenRevoker
	logger  *zap.Logger

	// dummyHash 用户不存在时参与比对，使两种失败路径耗时相近
	dummyHash []byte
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	revoker TokenRevoker,
	logger *zap.Logger,
) AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("campus-connect-dummy-password"), cfg.Auth.BcryptCost)
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		revoker:   revoker,
		logger:    logger,
		dummyHash: dummy,
	}
}

// maxPasswordBytes bcrypt 可处理的最大密码字节数
const maxPasswordBytes = 72

// DeriveRole 按邮箱推导角色：邮箱（忽略大小写）包含 marker 即为 admin
func DeriveRole(email, marker string) string {
	if marker != "" && strings.Contains(strings.ToLower(email), strings.ToLower(marker)) {
		return model.RoleAdmin
	}
	return model.RoleStudent
}

// NormalizeEmail 邮箱去空白并统一小写，注册与登录使用同一规则
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := NormalizeEmail(req.Email)

	// 1. 邮箱唯一性预检查（最终由唯一索引兜底）
	_, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 密码哈希（bcrypt 按字节计长度）
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 3. 创建用户
	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         DeriveRole(email, s.cfg.Auth.AdminMarker),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
	)

	return toUserResponse(user), nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 签发 Token
	view := toUserResponse(user)
	token, _, err := s.jwtMgr.GenerateToken(jwt.UserClaim{
		ID:    view.ID,
		Name:  view.Name,
		Email: view.Email,
		Role:  view.Role,
	})
	if err != nil {
		s.logger.Error("生成 Token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwtMgr.TTL().Seconds()),
		User:      *view,
	}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		// 未启用 Redis：Token 只能等待自然过期
		s.logger.Debug("Token 黑名单不可用，登出仅由客户端丢弃 Token")
		return nil
	}

	if err := s.revoker.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CurrentUser ──────────────────────

func (s *authService) CurrentUser(p access.Principal) *dto.UserResponse {
	return &dto.UserResponse{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}
}

// ── 内部辅助方法 ──

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:    u.UserID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
