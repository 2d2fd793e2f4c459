// Package tokenstore persists the session credential in the client-local
// database. It is the only writer of the access, refresh and user slots.
//
// Slots are read in one statement and written in one transaction, so readers
// never observe a half-written credential. A credential with either token
// half missing reads as absent.
package tokenstore

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/atolye/internal/client/models"
)

var (
	// ErrPartialCredential is returned by Set when a token half is empty.
	ErrPartialCredential = errors.New("credential must carry both access and refresh tokens")

	// ErrCorruptProfile means the user slot does not hold a JSON profile.
	ErrCorruptProfile = errors.New("stored user profile is corrupt")
)

// Store holds the real session credential.
type Store interface {
	// Get returns the stored credential, or (nil, nil) when absent or partial.
	Get(ctx context.Context) (*models.Credential, error)

	// Set replaces all three slots.
	Set(ctx context.Context, cred models.Credential) error

	// UpdateAccess stores a refreshed access token, and the rotated refresh
	// token when non-empty, keeping the profile. It only writes when the stored
	// refresh token still equals expectedRefresh and reports whether it wrote.
	UpdateAccess(ctx context.Context, expectedRefresh, access, refresh string) (bool, error)

	// Clear removes all three slots. Demo slots are left alone.
	Clear(ctx context.Context) error

	// ClearIf removes the three slots only when the stored token pair still
	// equals expectedAccess and expectedRefresh. It reports whether the store
	// is now empty of a credential. A store that holds no credential counts
	// as cleared.
	ClearIf(ctx context.Context, expectedAccess, expectedRefresh string) (bool, error)
}

// DemoStore holds the legacy demo login slots.
type DemoStore interface {
	GetDemo(ctx context.Context) (*models.DemoSession, error)
	SetDemo(ctx context.Context, s models.DemoSession) error
	ClearDemo(ctx context.Context) error
}
