// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing, verifying and
// rotating JWTs.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/dmitrijs2005/atolye/internal/server/auth"
	"github.com/dmitrijs2005/atolye/internal/server/config"
	"github.com/dmitrijs2005/atolye/internal/server/models"
	"github.com/dmitrijs2005/atolye/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/atolye/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidInput is returned when a required field is blank.
var ErrInvalidInput = errors.New("username and password are required")

// TokenPair bundles a short-lived access token and a long-lived refresh token.
// RefreshToken is empty when rotation is disabled.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is a fresh TokenPair and the user it was issued for.
type LoginResult struct {
	TokenPair
	User *models.User
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: validate a refresh token and mint a new access token
// - Authenticate: resolve an access token to its user
type UserService struct {
	users                        users.Repository
	tokens                       refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	rotate                       bool
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(u users.Repository, t refreshtokens.Repository, cfg *config.Config) *UserService {
	return &UserService{
		users:                        u,
		tokens:                       t,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		rotate:                       cfg.RotateRefreshTokens,
	}
}

// Register creates a user with a bcrypt hash of password.
func (s *UserService) Register(ctx context.Context, username, password, name, workshopName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.users.Create(ctx, &models.User{
		UserName:     username,
		Name:         name,
		WorkshopName: workshopName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
// Unknown users and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username string, password []byte) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || len(password) == 0 {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, password) != nil {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: *pair, User: user}, nil
}

// RefreshToken validates refreshToken and returns a new access token. With
// rotation enabled the presented token is revoked and a new one returned, so
// a refresh token works exactly once.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := auth.ParseToken(refreshToken, s.jwtSecret, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	if s.rotate {
		err = s.tokens.Delete(ctx, claims.ID)
	} else {
		_, err = s.tokens.Find(ctx, claims.ID)
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: refresh token revoked", common.ErrorUnauthorized)
		}
		return nil, common.ErrorInternal
	}

	if !s.rotate {
		access, err := s.generateAccessToken(claims.UserID)
		if err != nil {
			return nil, common.ErrorInternal
		}
		return &TokenPair{AccessToken: access}, nil
	}
	return s.generateTokenPair(ctx, claims.UserID)
}

// Authenticate resolves a valid access token to its user.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	tok, _, err := auth.GenerateToken(userID, auth.TokenTypeAccess, s.jwtSecret, s.accessTokenValidityDuration)
	return tok, err
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refresh, claims, err := auth.GenerateToken(userID, auth.TokenTypeRefresh, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.tokens.Create(ctx, &models.RefreshToken{
		ID:      claims.ID,
		UserID:  userID,
		Expires: claims.ExpiresAt.Time,
	}); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
