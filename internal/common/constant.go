// Package common contains shared constants and sentinel errors used across
// atolye components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// RequestIDHeaderName correlates a single outbound call with client logs.
const RequestIDHeaderName = "x-request-id"

// Slot names of the client-local persistent store.
const (
	SlotAccess  = "access"
	SlotRefresh = "refresh"
	SlotUser    = "user"

	// Demo login mode keeps its own pair of slots. They never form a Credential.
	SlotDemoToken = "workshopToken"
	SlotDemoName  = "workshopName"
)
