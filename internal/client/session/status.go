// Package session classifies a stored credential at a point in time.
package session

import (
	"time"

	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/client/token"
)

// Status is the outcome of Verify.
type Status int

const (
	// StatusAbsent means no credential, or one with a token half missing.
	StatusAbsent Status = iota
	// StatusValid means the access token decodes and has not expired.
	StatusValid
	// StatusExpired means the access token decodes but exp is not in the future.
	StatusExpired
	// StatusInvalid means the access token cannot be decoded.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Verify is a pure function of the credential and the clock. Claims are
// returned for Valid and Expired; the error is the decode failure for Invalid.
//
// A token is expired once exp*1000 <= now in milliseconds.
func Verify(cred *models.Credential, now time.Time) (Status, token.Claims, error) {
	if !cred.Complete() {
		return StatusAbsent, token.Claims{}, nil
	}

	claims, err := token.Decode(cred.AccessToken)
	if err != nil {
		return StatusInvalid, token.Claims{}, err
	}

	if claims.ExpiresAt*1000 <= now.UnixMilli() {
		return StatusExpired, claims, nil
	}
	return StatusValid, claims, nil
}
