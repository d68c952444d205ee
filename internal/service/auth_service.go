package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"timesheet-recon/backend/internal/dto"
	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/repository"
	"timesheet-recon/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrRoleMismatch       = errors.New("账号角色与所选角色不一致")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUsernameTaken      = errors.New("用户名已存在")
)

// TokenBlacklist Token 黑名单，由 *redis.Client 实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	// Logout 将 Token 加入黑名单；未启用 Redis 时为空操作
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；blacklist 可为 nil
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 校验所选角色
	if req.Role != "" && req.Role != user.Role {
		return nil, ErrRoleMismatch
	}

	// 4. 生成 Token
	accessToken, expiresAt, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Username, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)

	_, err := s.repo.User.GetByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       model.StatusUnverified,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户已创建", zap.String("username", user.Username), zap.String("role", user.Role))
	return &dto.RegisterResponse{ID: user.UserID, Username: user.Username, Role: user.Role}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("加入 Token 黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{ID: u.UserID, Username: u.Username, Role: u.Role}
	if u.Role == model.RoleFaculty {
		resp.Status = string(u.Status.OrDefault())
	}
	return resp
}
