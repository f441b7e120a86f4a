package solana

import "errors"

var (
	// ErrRateLimited is returned when the endpoint rejects a request with
	// HTTP 429. Callers that own their own retry policy classify on it.
	ErrRateLimited = errors.New("rate limited (429)")

	// ErrConfirmationTimeout is returned when a submitted transaction did not
	// reach the requested commitment within the wait window. The outcome is
	// ambiguous: the transaction may still land.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrTransactionFailed is returned when the ledger recorded the
	// transaction with a non-nil error.
	ErrTransactionFailed = errors.New("transaction failed on chain")
)
