package gmp

import "errors"

// Sentinel errors mirroring the on-chain failure taxonomy of spec §4.1 /
// §7, checked with errors.Is throughout the endpoint and its callers.
var (
	ErrAlreadyInitialized = errors.New("gmp: endpoint already initialized")
	ErrNotInitialized     = errors.New("gmp: endpoint not initialized")
	ErrNotAdmin           = errors.New("gmp: caller is not the admin")
	ErrMissingSignature   = errors.New("gmp: sender did not sign")
	ErrInvalidPayload     = errors.New("gmp: payload shorter than 33 bytes")
	ErrUntrustedRemote    = errors.New("gmp: source address is not the trusted remote")
	ErrUnauthorizedRelay  = errors.New("gmp: caller is not an authorized relay")
	ErrAlreadyDelivered   = errors.New("gmp: message already delivered for this intent and type")
	ErrNoRoute            = errors.New("gmp: no destination configured for this message type")
)
