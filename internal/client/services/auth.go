// Package services contains application services for the atolye client.
// This file defines the authentication service: login, demo login, logout,
// the authenticated who-am-I call and a liveness probe.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/atolye/internal/client/client"
	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/tokenstore"
)

// DemoToken is the fixed token stored by a demo login.
const DemoToken = "demo-token"

// ErrEmptyCredentials is returned when the username or password is blank.
var ErrEmptyCredentials = errors.New("username and password are required")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the credential.
//   - DemoLogin: open a demo session; no server call is made.
//   - Logout / DemoLogout: clear the respective slots.
//   - WhoAmI: fetch the signed-in profile, refreshing once on 401.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) (*models.Profile, error)
	DemoLogin(ctx context.Context, username string, password []byte) (*models.DemoSession, error)
	Logout(ctx context.Context) error
	DemoLogout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*models.Profile, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Sessions is the part of refresh.Coordinator the service relies on.
type Sessions interface {
	Authorized(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error
	SignOut(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and the
// local token store.
type authService struct {
	client   client.Client
	store    tokenstore.Store
	demo     tokenstore.DemoStore
	sessions Sessions
}

// NewAuthService constructs an AuthService.
func NewAuthService(c client.Client, store tokenstore.Store, demo tokenstore.DemoStore, sessions Sessions) AuthService {
	return &authService{client: c, store: store, demo: demo, sessions: sessions}
}

// Login authenticates against the server and stores access, refresh and
// profile atomically. A profile without any name gets the typed username.
func (a *authService) Login(ctx context.Context, username string, password []byte) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return nil, ErrEmptyCredentials
	}

	res, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	user := res.User
	if user.DisplayName() == models.DefaultDisplayName {
		user.Username = username
	}

	cred := models.Credential{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken, User: user}
	if err := a.store.Set(ctx, cred); err != nil {
		return nil, fmt.Errorf("credential saving error: %w", err)
	}
	return &user, nil
}

// DemoLogin stores the demo slots when both fields are filled in.
func (a *authService) DemoLogin(ctx context.Context, username string, password []byte) (*models.DemoSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return nil, ErrEmptyCredentials
	}

	s := models.DemoSession{Token: DemoToken, Name: username}
	if err := a.demo.SetDemo(ctx, s); err != nil {
		return nil, fmt.Errorf("demo session saving error: %w", err)
	}
	return &s, nil
}

// Logout clears the real credential.
func (a *authService) Logout(ctx context.Context) error {
	return a.sessions.SignOut(ctx)
}

// DemoLogout clears the demo slots only.
func (a *authService) DemoLogout(ctx context.Context) error {
	return a.demo.ClearDemo(ctx)
}

// WhoAmI asks the server who the stored access token belongs to.
func (a *authService) WhoAmI(ctx context.Context) (*models.Profile, error) {
	var p *models.Profile
	err := a.sessions.Authorized(ctx, func(ctx context.Context, access string) error {
		var err error
		p, err = a.client.WhoAmI(ctx, access)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
