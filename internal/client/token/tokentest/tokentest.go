// Package tokentest mints signed access tokens for tests.
package tokentest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("tokentest-secret")

// Mint returns an HS256 token for userID expiring at exp.
func Mint(t testing.TB, userID int64, exp time.Time) string {
	t.Helper()
	return MintClaims(t, jwt.MapClaims{
		"user_id":    userID,
		"token_type": "access",
		"jti":        "jti-" + exp.Format("150405.000000000"),
		"exp":        exp.Unix(),
	})
}

// MintClaims signs arbitrary claims.
func MintClaims(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
