package core

import (
	"errors"
	"fmt"
)

// Code is a stable numeric error code reported to clients.
type Code uint32

// Error is a domain failure with a stable code. Values are compared by
// identity, so wrap them with %w to add context.
type Error struct {
	Code Code
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

// NewError declares a coded error. Codes must be unique across programs.
func NewError(code Code, name, msg string) *Error {
	return &Error{Code: code, Name: name, Msg: msg}
}

// CodeOf returns the domain error carried by err, if any.
func CodeOf(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	// ErrInvalidPasskey is returned when the supplied passkey does not match the authenticator record
	ErrInvalidPasskey = NewError(6000, "InvalidPasskey", "passkey does not match authenticator")
	// ErrInvalidAuthenticator is returned when an authenticator does not belong to the wallet
	ErrInvalidAuthenticator = NewError(6001, "InvalidAuthenticator", "authenticator does not belong to wallet")
	// ErrInvalidRuleProgram is returned when a rule program is not acceptable for the action
	ErrInvalidRuleProgram = NewError(6002, "InvalidRuleProgram", "invalid rule program")
	// ErrProgramNotInWhitelist is returned when a rule program is not whitelisted
	ErrProgramNotInWhitelist = NewError(6003, "ProgramNotInWhitelist", "program not in whitelist")
	// ErrSignatureVerificationFailed is returned when the verification record does not match
	ErrSignatureVerificationFailed = NewError(6004, "SignatureVerificationFailed", "signature verification failed")
	// ErrSignatureExpired is returned when the message timestamp is too old
	ErrSignatureExpired = NewError(6005, "SignatureExpired", "signature expired")
	// ErrInvalidTimestamp is returned when the message timestamp is in the future
	ErrInvalidTimestamp = NewError(6006, "InvalidTimestamp", "timestamp too far in the future")
	// ErrInvalidNonce is returned when the message nonce is not the stored nonce
	ErrInvalidNonce = NewError(6007, "InvalidNonce", "invalid nonce")
	// ErrInvalidPubkey is returned when the passkey in the request is not the stored passkey
	ErrInvalidPubkey = NewError(6008, "InvalidPubkey", "invalid pubkey")
	// ErrInvalidAccountInput is returned for missing, misplaced or malformed accounts
	ErrInvalidAccountInput = NewError(6009, "InvalidAccountInput", "invalid account input")
	// ErrInvalidRuleInstruction is returned when rule or action data carries the wrong selector
	ErrInvalidRuleInstruction = NewError(6010, "InvalidRuleInstruction", "invalid rule instruction")
	// ErrInvalidBump is returned when an account is not at its derived address
	ErrInvalidBump = NewError(6011, "InvalidBump", "account does not match derived address")
	// ErrInsufficientFunds is returned when a debit exceeds the balance
	ErrInsufficientFunds = NewError(6012, "InsufficientFunds", "insufficient funds")
	// ErrArithmeticOverflow is returned when a counter or balance would overflow
	ErrArithmeticOverflow = NewError(6013, "ArithmeticOverflow", "arithmetic overflow")
	// ErrInvalidInstructionData is returned when instruction data cannot be decoded
	ErrInvalidInstructionData = NewError(6014, "InvalidInstructionData", "invalid instruction data")
	// ErrAlreadyInitialized is returned when a singleton record already exists
	ErrAlreadyInitialized = NewError(6015, "AlreadyInitialized", "already initialized")
	// ErrUnauthorized is returned when an administrative action lacks the admin signature
	ErrUnauthorized = NewError(6016, "Unauthorized", "unauthorized")
	// ErrWhitelistFull is returned when the rule program whitelist has no free slot
	ErrWhitelistFull = NewError(6017, "WhitelistFull", "whitelist is full")
	// ErrInvalidAccountData is returned when a record has the wrong owner or discriminant
	ErrInvalidAccountData = NewError(6018, "InvalidAccountData", "invalid account data")
	// ErrPayloadMismatch is returned when the signed payload does not commit to the request
	ErrPayloadMismatch = NewError(6019, "PayloadMismatch", "signed payload does not match request")
	// ErrInvalidAddress is returned when an address cannot be decoded
	ErrInvalidAddress = NewError(6020, "InvalidAddress", "invalid address")
)
