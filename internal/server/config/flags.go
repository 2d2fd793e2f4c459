package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/atolye/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051"), empty disables
//	-w string   HTTP bind address (e.g., ":8000"), empty disables
//	-s string   JWT HMAC secret key
//	-t int      access token validity, seconds
//	-r int      refresh token validity, minutes
//	-k bool     rotate refresh tokens (use -k=false to disable)
//	-u string   seed user name
//	-p string   seed user password
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Access tokens are short-lived so their validity is given in seconds.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-s", "-t", "-r", "-k", "-u", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.BoolVar(&config.RotateRefreshTokens, "k", config.RotateRefreshTokens, "rotate refresh tokens")
	fs.IntVar(&config.LoginAttemptsPerMinute, "l", config.LoginAttemptsPerMinute, "login attempts per minute per user (0 disables)")
	fs.StringVar(&config.SeedUsername, "u", config.SeedUsername, "seed user name")
	fs.StringVar(&config.SeedPassword, "p", config.SeedPassword, "seed user password")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access_token_validity_duration (in seconds)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Second
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
