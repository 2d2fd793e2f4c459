package models

import "time"

// RefreshToken records an issued refresh token by its jti. A refresh token
// is accepted only while its record exists.
type RefreshToken struct {
	ID        string
	UserID    int64
	Expires   time.Time
	CreatedAt time.Time
}
