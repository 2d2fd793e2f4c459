// Package client contains the client-side transport to the atolye auth
// backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Login,
//     WhoAmI, RefreshToken, Ping.
//  2. An HTTP implementation (see HTTPClient) speaking the JSON REST API under
//     the configured base URL, with "Authorization: Bearer" access tokens.
//  3. A gRPC implementation (see GRPCClient) carrying the access token in the
//     "access_token" metadata key. Messages are protobuf well-known types
//     (structpb.Struct, emptypb.Empty); AuthServiceDesc describes the service
//     for servers and test doubles.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// The transports never refresh tokens on their own. Refresh policy lives in
// the refresh package, which owns the single in-flight exchange.
//
// # Error Handling
//
// Failures are mapped to sentinel errors that callers match with errors.Is:
// ErrUnauthorized, ErrUnavailable, ErrBadResponse.
//
// Concurrency & Contexts
//
// Both implementations are safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
