package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/piyush1222p/Samadhan-Kendra/internal/identity/service TokenGenerator

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/pkg/constant"
)

type TokenGenerator interface {
	Generate(userID, email string) (string, string, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
}

// TokenService signs and verifies the access/refresh token pair. Both token
// kinds share one secret; refresh tokens carry a type marker claim so they
// cannot be replayed as access tokens.
type TokenService struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	TokenType string `json:"type,omitempty"`
}

func NewTokenService(secret string, accessExpiry, refreshExpiry time.Duration) *TokenService {
	return &TokenService{
		Secret:             secret,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
	}
}

func (ts *TokenService) Generate(userID, email string) (string, string, error) {
	now := time.Now()

	accessClaims := JWTCustomClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	refreshClaims := JWTCustomClaims{
		Email:     email,
		TokenType: constant.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(ts.Secret))
	if err != nil {
		return "", "", err
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(ts.Secret))
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// VerifyAccessToken parses and validates the given access token string.
// Refresh tokens are rejected here even though they carry the same signature.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims, err := ts.verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType == constant.TokenTypeRefresh {
		return nil, apperr.ErrInvalidToken
	}

	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token. Access tokens
// lack the type marker and are rejected.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	claims, err := ts.verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != constant.TokenTypeRefresh {
		return nil, apperr.ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) verify(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.Secret), nil
	})

	if err != nil {
		return nil, apperr.ErrInvalidToken
	}

	if !token.Valid {
		return nil, apperr.ErrInvalidToken
	}

	return claims, nil
}
