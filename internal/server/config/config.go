// Package config handles configuration for the development auth server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for the auth server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses of the two front ends.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - RotateRefreshTokens: issue a new refresh token on every refresh call.
//   - LoginAttemptsPerMinute: per-username login throttle of the HTTP API, 0 disables it.
//   - SeedUser*: the account created at startup.
type Config struct {
	EndpointAddrGRPC             string
	EndpointAddrHTTP             string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	RotateRefreshTokens          bool
	LoginAttemptsPerMinute       int
	SeedUsername                 string
	SeedPassword                 string
	SeedName                     string
	SeedWorkshopName             string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8000"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 1 * time.Minute
	c.RefreshTokenValidityDuration = 1 * time.Hour
	c.RotateRefreshTokens = true
	c.LoginAttemptsPerMinute = 10
	c.SeedUsername = "usta"
	c.SeedPassword = "usta"
	c.SeedName = "Usta"
	c.SeedWorkshopName = "Zargar"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("secret key is required")
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		return errors.New("token validity must be positive")
	}
	if c.LoginAttemptsPerMinute < 0 {
		return errors.New("login attempts per minute must not be negative")
	}
	if c.EndpointAddrGRPC == "" && c.EndpointAddrHTTP == "" {
		return errors.New("at least one endpoint address is required")
	}
	return nil
}
