package smartwallet

import (
	"github.com/layer-3/smartwallet/core"
	"github.com/layer-3/smartwallet/service"
)

var (
	// ErrWalletNotFound is returned when no wallet exists at an address
	ErrWalletNotFound = service.ErrWalletNotFound

	// ErrAuthenticatorNotFound is returned when a passkey is not enrolled on a wallet
	ErrAuthenticatorNotFound = service.ErrAuthenticatorNotFound

	// ErrSignatureVerificationFailed is returned when the passkey signature does not verify
	ErrSignatureVerificationFailed = core.ErrSignatureVerificationFailed

	// ErrSignatureExpired is returned when a signed message is older than the replay window
	ErrSignatureExpired = core.ErrSignatureExpired

	// ErrInvalidTimestamp is returned when a signed message is dated in the future
	ErrInvalidTimestamp = core.ErrInvalidTimestamp

	// ErrInvalidNonce is returned when a signed message was already used or is out of order
	ErrInvalidNonce = core.ErrInvalidNonce

	// ErrProgramNotInWhitelist is returned when a rule program is not whitelisted
	ErrProgramNotInWhitelist = core.ErrProgramNotInWhitelist

	// ErrPayloadMismatch is returned when the signed payload does not cover the action
	ErrPayloadMismatch = core.ErrPayloadMismatch
)
