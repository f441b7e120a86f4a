package mint

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a queried mint or token account does not
// exist on the ledger.
var ErrNotFound = errors.New("account not found")

// BuildError reports malformed accounts or stale state during transaction
// assembly. Building never mutates the ledger, so a BuildError is always
// safe to retry with corrected inputs.
type BuildError struct {
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build mint transaction: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("build mint transaction: %s", e.Reason)
}

func (e *BuildError) Unwrap() error { return e.Err }

// SubmissionError reports a ledger-level rejection of the transaction
// (stale blockhash, insufficient funds at submit time, failed execution).
// Terminal for the mint request: retrying requires a rebuilt transaction
// under a fresh mint identity.
type SubmissionError struct {
	Signature string // empty if the transaction never got a signature
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Signature != "" {
		return fmt.Sprintf("submit mint transaction %s: %v", e.Signature, e.Err)
	}
	return fmt.Sprintf("submit mint transaction: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError reports an ambiguous outcome: the transaction was
// submitted but did not reach the commitment within the wait window. The
// mint may still land; callers must surface the ambiguity instead of
// treating it as a plain failure, and must never reuse the mint identity.
type ConfirmationTimeoutError struct {
	MintAddress  string
	Signature    string
	TokenAccount string
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("mint %s submitted as %s but unconfirmed within the wait window; outcome unknown",
		e.MintAddress, e.Signature)
}
