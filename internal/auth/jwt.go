package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength JWT 密钥最小长度
const MinSecretLength = 32

// TokenType 访问令牌类型
const TokenType = "access"

// TokenClaims JWT 令牌声明
type TokenClaims struct {
	UserID uint
	Type   string
	Exp    int64
	Iat    int64
}

// JWTService 签发和校验访问令牌
// 用户管理不在本服务内，令牌只携带 user_id
type JWTService struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewJWTService 创建 JWT 服务
func NewJWTService(secret string, expiresIn time.Duration) (*JWTService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", MinSecretLength, len(secret))
	}
	if expiresIn <= 0 {
		expiresIn = 30 * 24 * time.Hour
	}
	return &JWTService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}, nil
}

// GenerateAccessToken 为用户签发访问令牌
func (s *JWTService) GenerateAccessToken(userID uint) (string, time.Time, error) {
	if userID == 0 {
		return "", time.Time{}, errors.New("user id is required")
	}

	now := s.now()
	expiry := now.Add(s.expiresIn)
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    TokenType,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiry, nil
}

// ParseToken 解析和验证 JWT 令牌
func (s *JWTService) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, errors.New("user_id in token is not a valid number")
	}
	tokenType, _ := claims["type"].(string)
	if tokenType != TokenType {
		return nil, errors.New("not an access token")
	}
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)

	return &TokenClaims{
		UserID: uint(userID),
		Type:   tokenType,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}, nil
}
