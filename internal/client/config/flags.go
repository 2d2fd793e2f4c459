package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/atolye/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   REST API base url
//	-g string   gRPC endpoint host:port
//	-t string   transport: http or grpc
//	-d string   path of the local session database
//	-r int      request timeout in seconds
//	-i int      online check interval in seconds
//	-m string   metrics listen address
//	-l string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-t", "-d", "-r", "-i", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "REST API base url")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "gRPC endpoint address and port")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport (http or grpc)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "session database path")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address (empty disables)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	requestTimeout := fs.Int("r", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
