package domain

// AttemptOutcome classifies how a single funding provider call resolved.
type AttemptOutcome string

const (
	AttemptPending   AttemptOutcome = "PENDING"
	AttemptSucceeded AttemptOutcome = "SUCCEEDED"
	AttemptFailed    AttemptOutcome = "FAILED"
)

// FundingAttempt is one invocation of a funding provider. Attempts are
// transient: created per try, recorded for observability, never reloaded.
type FundingAttempt struct {
	Provider    string         // provider identifier
	Wallet      string         // funded wallet address
	Lamports    uint64         // requested amount
	Attempt     int            // 1-based attempt number within the provider
	Outcome     AttemptOutcome // PENDING | SUCCEEDED | FAILED
	Signature   string         // funding transaction signature on success
	Reason      string         // failure reason on FAILED
	RateLimited bool           // failure classified as a rate limit
	OccurredAt  int64          // Unix timestamp in milliseconds
}
