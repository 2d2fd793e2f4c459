package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/atolye/internal/flagx"
	"github.com/dmitrijs2005/atolye/internal/timex"
)

// JsonConfig is a DTO used only for reading JSON configuration files.
// Durations use timex.Duration so both "90s" and integer nanoseconds work.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RotateRefreshTokens          *bool          `json:"rotate_refresh_tokens"`
	LoginAttemptsPerMinute       *int           `json:"login_attempts_per_minute"`
	SeedUsername                 string         `json:"seed_username"`
	SeedPassword                 string         `json:"seed_password"`
	SeedName                     string         `json:"seed_name"`
	SeedWorkshopName             string         `json:"seed_workshop_name"`
}

// parseJson overlays Config with values from the file named by -c or
// -config. Missing keys keep their current value. If the file cannot be read
// or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.SeedUsername, c.SeedUsername)
	overlay(&config.SeedPassword, c.SeedPassword)
	overlay(&config.SeedName, c.SeedName)
	overlay(&config.SeedWorkshopName, c.SeedWorkshopName)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RotateRefreshTokens != nil {
		config.RotateRefreshTokens = *c.RotateRefreshTokens
	}
	if c.LoginAttemptsPerMinute != nil {
		config.LoginAttemptsPerMinute = *c.LoginAttemptsPerMinute
	}
}
