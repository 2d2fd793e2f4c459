package models

import "time"

// User is an account of the dev auth server. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	UserName     string
	Name         string
	WorkshopName string
	PasswordHash []byte
	CreatedAt    time.Time
}
