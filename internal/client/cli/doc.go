// Package cli provides the interactive atolye terminal client.
//
// It wires configuration, local storage, the auth transport, the session
// coordinator and the route guard behind a REPL. Every "open <path>" command
// is a route transition: the guard decides whether the page is shown, a
// loading placeholder is printed while the session is checked, and a failed
// check ends in a single redirect to the login route.
//
// Key features:
//   - Login / Logout against the auth backend
//   - Demo workshop login with its own session slots
//   - Route navigation and the workshop page menu
//   - whoami, an authenticated call that refreshes once on 401
//   - Background connectivity watcher (online/offline mode)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
