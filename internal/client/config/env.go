package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvAPIBaseURL     = "ATOLYE_API_URL"
	EnvGRPCAddr       = "ATOLYE_GRPC_ADDR"
	EnvTransport      = "ATOLYE_TRANSPORT"
	EnvDatabasePath   = "ATOLYE_DB_PATH"
	EnvRequestTimeout = "ATOLYE_REQUEST_TIMEOUT"
	EnvLoginPath      = "ATOLYE_LOGIN_PATH"
	EnvPublicPaths    = "ATOLYE_PUBLIC_PATHS"
	EnvVerifyRemote   = "ATOLYE_VERIFY_REMOTE"
	EnvMetricsAddr    = "ATOLYE_METRICS_ADDR"
	EnvLogLevel       = "ATOLYE_LOG_LEVEL"
)

const envFile = ".env"

func parseEnv(cfg *Config) {
	parseEnvFile(cfg, envFile)
}

// parseEnvFile overlays cfg with ATOLYE_* variables. Values from the process
// environment win over those in the dotenv file at path; a missing file is
// ignored. Panics on unreadable files and malformed values.
func parseEnvFile(cfg *Config, path string) {
	fileVals := map[string]string{}
	if path != "" {
		vals, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileVals = vals
		case errors.Is(err, fs.ErrNotExist):
		default:
			panic(err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	setString(EnvAPIBaseURL, &cfg.APIBaseURL)
	setString(EnvGRPCAddr, &cfg.GRPCAddr)
	setString(EnvTransport, &cfg.Transport)
	setString(EnvDatabasePath, &cfg.DatabasePath)
	setString(EnvLoginPath, &cfg.LoginPath)
	setString(EnvMetricsAddr, &cfg.MetricsAddr)
	setString(EnvLogLevel, &cfg.LogLevel)

	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := lookup(EnvPublicPaths); ok {
		cfg.PublicPaths = splitList(v)
	}
	if v, ok := lookup(EnvVerifyRemote); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		cfg.VerifyRemote = b
	}
}
