package client

import (
	"context"

	"github.com/dmitrijs2005/atolye/internal/client/models"
)

// Client is the transport-agnostic contract of the auth backend.
type Client interface {
	// Login exchanges a username and password for a token pair and profile.
	Login(ctx context.Context, username string, password []byte) (*LoginResult, error)

	// WhoAmI validates accessToken on the server and returns its owner.
	WhoAmI(ctx context.Context, accessToken string) (*models.Profile, error)

	// RefreshToken exchanges refreshToken for a new access token. The returned
	// pair carries a new refresh token only when the server rotated it.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	Ping(ctx context.Context) error
	Close() error
}

// TokenPair is the result of a refresh exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is the result of a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         models.Profile
}
