package storage

import (
	"context"

	"solana-nft-minter/internal/domain"
)

// MintReceiptStore provides access to mint_receipts storage.
type MintReceiptStore interface {
	// Insert adds a new receipt. Returns ErrDuplicateKey if mint_address exists.
	Insert(ctx context.Context, r *domain.MintReceipt) error

	// GetByMint retrieves a receipt by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mintAddress string) (*domain.MintReceipt, error)

	// GetByStatus retrieves all receipts with the given status, ordered by created_at ASC.
	GetByStatus(ctx context.Context, status domain.MintStatus) ([]*domain.MintReceipt, error)

	// GetByTimeRange retrieves receipts created within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.MintReceipt, error)
}

// FundingAttemptStore provides access to funding_attempts storage.
type FundingAttemptStore interface {
	// Insert adds a new attempt record.
	Insert(ctx context.Context, a *domain.FundingAttempt) error

	// InsertBulk adds multiple attempt records in one batch.
	InsertBulk(ctx context.Context, attempts []*domain.FundingAttempt) error

	// GetByWallet retrieves all attempts for a wallet, ordered by occurred_at ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.FundingAttempt, error)

	// GetByProvider retrieves all attempts through a provider, ordered by occurred_at ASC.
	GetByProvider(ctx context.Context, provider string) ([]*domain.FundingAttempt, error)

	// GetByTimeRange retrieves attempts for a wallet within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.FundingAttempt, error)
}
