// Package token decodes access tokens into claims without verifying the
// signature. The server remains the authority on validity; the client only
// needs the expiry and subject to decide when to refresh.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a string is not a decodable JWT or
// carries no expiry.
var ErrMalformedToken = errors.New("malformed token")

// Claims are the parts of an access token the client relies on.
type Claims struct {
	// ExpiresAt is the "exp" claim in epoch seconds.
	ExpiresAt int64
	UserID    int64
	JTI       string
	TokenType string
}

type accessClaims struct {
	UserID    json.RawMessage `json:"user_id,omitempty"`
	TokenType string          `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(jwt.WithJSONNumber())

// Decode parses raw into Claims. An expired token decodes fine; expiry is the
// caller's concern.
func Decode(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty", ErrMalformedToken)
	}

	parsed, _, err := parser.ParseUnverified(raw, &accessClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	ac, ok := parsed.Claims.(*accessClaims)
	if !ok {
		return Claims{}, fmt.Errorf("%w: unexpected claims type", ErrMalformedToken)
	}
	if ac.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}

	userID := subjectID(ac)

	return Claims{
		ExpiresAt: ac.ExpiresAt.Unix(),
		UserID:    userID,
		JTI:       ac.ID,
		TokenType: ac.TokenType,
	}, nil
}

// subjectID reads user_id, number or numeric string, falling back to a
// numeric "sub". Any other shape yields user id 0.
func subjectID(ac *accessClaims) int64 {
	if raw := strings.Trim(string(ac.UserID), `"`); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	if id, err := strconv.ParseInt(ac.Subject, 10, 64); err == nil {
		return id
	}
	return 0
}
