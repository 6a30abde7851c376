package runtime

import "errors"

var (
	// ErrMissingSignature is returned when an instruction marks an account as
	// signer but the transaction carries no signature for it
	ErrMissingSignature = errors.New("runtime: missing required signature")
	// ErrPrivilegeEscalation is returned when an invocation asks for signer or
	// writable rights the caller does not hold
	ErrPrivilegeEscalation = errors.New("runtime: privilege escalation")
	// ErrMissingAccount is returned when an invocation references an account
	// the caller did not pass along
	ErrMissingAccount = errors.New("runtime: missing account")
	// ErrUnknownProgram is returned for instructions addressed to an
	// unregistered program
	ErrUnknownProgram = errors.New("runtime: unknown program")
	// ErrCallDepth is returned when nested invocations exceed MaxInvokeDepth
	ErrCallDepth = errors.New("runtime: call depth exceeded")
	// ErrReadonlyAccount is returned when a program modifies an account it
	// did not receive as writable
	ErrReadonlyAccount = errors.New("runtime: account is readonly")
	// ErrExternalAccountModified is returned when a program modifies an
	// account it does not own
	ErrExternalAccountModified = errors.New("runtime: account not owned by program")
	// ErrAccountAlreadyInUse is returned when creating an account that exists
	ErrAccountAlreadyInUse = errors.New("runtime: account already in use")
	// ErrAccountDataSize is returned when written data does not fit the account
	ErrAccountDataSize = errors.New("runtime: account data size mismatch")
	// ErrInsufficientLamports is returned when a debit exceeds the balance
	ErrInsufficientLamports = errors.New("runtime: insufficient lamports")
	// ErrInsufficientFundsForFee is returned when the fee payer cannot pay
	ErrInsufficientFundsForFee = errors.New("runtime: insufficient funds for fee")
	// ErrInvalidInstruction is returned for undecodable system instructions
	ErrInvalidInstruction = errors.New("runtime: invalid instruction data")
	// ErrInvalidSeeds is returned when signer seeds do not derive an address
	ErrInvalidSeeds = errors.New("runtime: invalid signer seeds")
	// ErrPrecompileFailed is returned when a verification record does not verify
	ErrPrecompileFailed = errors.New("runtime: precompile verification failed")
	// ErrInstructionIndex is returned when an instructions sysvar lookup is out of range
	ErrInstructionIndex = errors.New("runtime: instruction index out of range")
	// ErrUnbalanced is returned when a transaction creates or destroys lamports
	ErrUnbalanced = errors.New("runtime: lamports not conserved")
	// ErrEmptyTransaction is returned for transactions without instructions
	ErrEmptyTransaction = errors.New("runtime: empty transaction")
)
