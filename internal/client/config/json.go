package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/atolye/internal/flagx"
	"github.com/dmitrijs2005/atolye/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "3s" or as integer nanoseconds. Empty values leave the
// current setting alone.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_url"`
	GRPCAddr       string         `json:"grpc_addr"`
	Transport      string         `json:"transport"`
	DatabasePath   string         `json:"database_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LoginPath      string         `json:"login_path"`
	DemoPrefix     string         `json:"demo_prefix"`
	DemoLoginPath  string         `json:"demo_login_path"`
	PublicPaths    []string       `json:"public_paths"`
	OnlineCheck    timex.Duration `json:"online_check_interval"`
	VerifyRemote   *bool          `json:"verify_remote"`
	MetricsAddr    string         `json:"metrics_addr"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	overlay(&cfg.APIBaseURL, jc.APIBaseURL)
	overlay(&cfg.GRPCAddr, jc.GRPCAddr)
	overlay(&cfg.Transport, jc.Transport)
	overlay(&cfg.DatabasePath, jc.DatabasePath)
	overlay(&cfg.LoginPath, jc.LoginPath)
	overlay(&cfg.DemoPrefix, jc.DemoPrefix)
	overlay(&cfg.DemoLoginPath, jc.DemoLoginPath)
	overlay(&cfg.MetricsAddr, jc.MetricsAddr)
	overlay(&cfg.LogLevel, jc.LogLevel)

	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheck.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheck.Duration
	}
	if jc.PublicPaths != nil {
		cfg.PublicPaths = jc.PublicPaths
	}
	if jc.VerifyRemote != nil {
		cfg.VerifyRemote = *jc.VerifyRemote
	}
}
