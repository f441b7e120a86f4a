package solana

import (
	"context"
	"time"
)

// RPCClient defines the ledger operations the mint service depends on.
// Reads are idempotent; SendTransaction is at-most-once-intent (resubmitting
// the same signed transaction is a no-op to the ledger, not a duplicate).
type RPCClient interface {
	// GetBalance retrieves an account balance in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction assembly.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a serialized signed transaction and returns its signature.
	SendTransaction(ctx context.Context, wireTx []byte) (string, error)

	// GetSignatureStatuses retrieves confirmation status for the given signatures.
	// Entries are nil for unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// ConfirmTransaction blocks until the signature reaches the commitment or
	// the timeout elapses. Returns ErrConfirmationTimeout on deadline and
	// ErrTransactionFailed if the ledger recorded the transaction as failed.
	ConfirmTransaction(ctx context.Context, signature string, commitment Commitment, timeout time.Duration) error

	// GetAccountInfo retrieves raw account state. Returns nil if the account
	// does not exist.
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)

	// GetTokenAccountsByOwner enumerates SPL token accounts held by an owner.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]ParsedTokenAccount, error)

	// RequestAirdrop requests devnet funding for an address and returns the
	// funding transaction signature.
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for an
	// account of the given size.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
}

// Commitment is the confirmation level requested from the ledger.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// SatisfiedBy reports whether an observed confirmation status satisfies the
// requested commitment. Commitments are ordered processed < confirmed < finalized.
func (c Commitment) SatisfiedBy(observed string) bool {
	rank := map[string]int{
		string(CommitmentProcessed): 0,
		string(CommitmentConfirmed): 1,
		string(CommitmentFinalized): 2,
	}
	want, ok := rank[string(c)]
	if !ok {
		want = 1
	}
	got, ok := rank[observed]
	if !ok {
		return false
	}
	return got >= want
}
