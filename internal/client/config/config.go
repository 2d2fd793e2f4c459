package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Transports understood by the client.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds runtime settings for the atolye client.
//
// Units: RequestTimeout is a time.Duration applied to each backend call.
type Config struct {
	APIBaseURL     string
	GRPCAddr       string
	Transport      string
	DatabasePath   string
	RequestTimeout time.Duration

	LoginPath     string
	DemoPrefix    string
	DemoLoginPath string
	PublicPaths   []string

	// VerifyRemote confirms locally valid tokens with the who-am-I call.
	VerifyRemote bool

	// OnlineCheckInterval is how often the REPL probes server reachability.
	// Zero disables the probe.
	OnlineCheckInterval time.Duration

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string
	LogLevel    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000/api/"
	c.GRPCAddr = "127.0.0.1:50051"
	c.Transport = TransportHTTP
	c.DatabasePath = "atolye.db"
	c.RequestTimeout = 10 * time.Second
	c.LoginPath = "/login"
	c.DemoPrefix = "/workshop"
	c.DemoLoginPath = "/workshop/login"
	c.PublicPaths = nil
	c.VerifyRemote = true
	c.OnlineCheckInterval = 30 * time.Second
	c.MetricsAddr = ""
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and a .env file), JSON (if present) and command-line flags
// (if present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api url %q", c.APIBaseURL)
		}
	case TransportGRPC:
		if c.GRPCAddr == "" {
			return fmt.Errorf("grpc address is empty")
		}
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportHTTP, TransportGRPC)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("negative request timeout %s", c.RequestTimeout)
	}
	if c.OnlineCheckInterval < 0 {
		return fmt.Errorf("negative online check interval %s", c.OnlineCheckInterval)
	}
	for name, p := range map[string]string{"login path": c.LoginPath, "demo login path": c.DemoLoginPath} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s %q must start with /", name, p)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
