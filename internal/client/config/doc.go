// Package config loads runtime configuration for the atolye client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. ATOLYE_* environment variables, falling back to a .env file in the
//     working directory (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   REST API base url
//	-g string   gRPC endpoint host:port
//	-t string   transport, http or grpc
//	-d string   session database path
//	-r int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-m string   metrics listen address
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either a
// string like "10s" or integer nanoseconds:
//
//	{
//	  "api_url": "http://localhost:8000/api/",
//	  "transport": "http",
//	  "database_path": "atolye.db",
//	  "request_timeout": "10s",
//	  "login_path": "/login",
//	  "public_paths": ["/about"],
//	  "verify_remote": true
//	}
package config
