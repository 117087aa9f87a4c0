package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/errs"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务：账号密码登录，签发JWT，刷新凭证放Redis
type AuthService struct {
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{userRepo: userRepo, rdb: rdb, cfg: cfg}
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 账号密码登录
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*entity.User, *TokenPair, error) {
	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil {
		return nil, nil, errs.Validation("auth.login", "用户名或密码错误")
	}
	if user.Status != "active" {
		return nil, nil, errs.InvalidState("auth.login", "User", user.ID, "账号已停用")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, errs.Validation("auth.login", "用户名或密码错误")
	}

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()
	accessExpire := s.cfg.JWT.AccessTokenExpire
	if accessExpire == 0 {
		accessExpire = 2 * time.Hour
	}
	refreshExpire := s.cfg.JWT.RefreshTokenExpire
	if refreshExpire == 0 {
		refreshExpire = 7 * 24 * time.Hour
	}

	accessClaims := jwt.MapClaims{
		"sub":   user.ID,
		"uid":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"roles": []string{user.Role},
		"perms": []string(user.Permissions),
		"iss":   s.cfg.JWT.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(accessExpire).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, errs.Collaborator("auth.token", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub": user.ID,
		"jti": refreshJti,
		"iss": s.cfg.JWT.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(refreshExpire).Unix(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, errs.Collaborator("auth.token", err)
	}

	// 刷新凭证放Redis，注销即失效
	if err := s.rdb.Set(ctx, "token:refresh:"+refreshJti, user.ID, refreshExpire).Err(); err != nil {
		return nil, errs.Collaborator("auth.token", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessExpire.Seconds()),
	}, nil
}

// Refresh 用刷新凭证换取新Token对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errs.Validation("auth.refresh", "刷新凭证无效或已过期")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.Validation("auth.refresh", "刷新凭证格式错误")
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, errs.Validation("auth.refresh", "刷新凭证格式错误")
	}

	userID, err := s.rdb.Get(ctx, "token:refresh:"+jti).Result()
	if err == redis.Nil {
		return nil, errs.Validation("auth.refresh", "刷新凭证已失效")
	}
	if err != nil {
		return nil, errs.Collaborator("auth.refresh", err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, wrapRead(err, "auth.refresh", "User", userID)
	}

	// 旧凭证一次性作废
	s.rdb.Del(ctx, "token:refresh:"+jti)
	return s.generateTokenPair(ctx, user)
}

// Logout 注销：作废刷新凭证
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if jti, _ := claims["jti"].(string); jti != "" {
			s.rdb.Del(ctx, "token:refresh:"+jti)
		}
	}
}
