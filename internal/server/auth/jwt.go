// Package auth signs and verifies the HS256 tokens issued by the dev server.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the registered claims plus the user id and token type.
// The jti identifies refresh tokens in the token repository.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
}

// GenerateToken signs a token of tokenType for userID that expires after
// validityDuration.
func GenerateToken(userID int64, tokenType string, secretKey []byte, validityDuration time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:    userID,
		TokenType: tokenType,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", nil, err
	}

	return tokenString, claims, nil
}

// ParseToken verifies tokenString and checks that it is of tokenType.
// An expired token yields common.ErrTokenExpired (or ErrRefreshTokenExpired
// for refresh tokens); anything else wraps common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if tokenType == TokenTypeRefresh {
				return nil, common.ErrRefreshTokenExpired
			}
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: want %s token, got %q", common.ErrInvalidToken, tokenType, claims.TokenType)
	}

	return claims, nil
}
