package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/storage"
)

// FundingAttemptStore implements storage.FundingAttemptStore using ClickHouse.
// The table is an event log: every provider invocation is one row, duplicates
// are impossible by construction (each attempt is a distinct event in time).
type FundingAttemptStore struct {
	conn *Conn
}

// NewFundingAttemptStore creates a new FundingAttemptStore.
func NewFundingAttemptStore(conn *Conn) *FundingAttemptStore {
	return &FundingAttemptStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FundingAttemptStore = (*FundingAttemptStore)(nil)

// Insert adds a new attempt record.
func (s *FundingAttemptStore) Insert(ctx context.Context, a *domain.FundingAttempt) error {
	return s.InsertBulk(ctx, []*domain.FundingAttempt{a})
}

// InsertBulk adds multiple attempt records in one batch.
func (s *FundingAttemptStore) InsertBulk(ctx context.Context, attempts []*domain.FundingAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO funding_attempts (
			provider, wallet, lamports, attempt, outcome, signature, reason, rate_limited, occurred_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range attempts {
		rateLimited := uint8(0)
		if a.RateLimited {
			rateLimited = 1
		}
		err = batch.Append(
			a.Provider, a.Wallet, a.Lamports, uint16(a.Attempt),
			string(a.Outcome), a.Signature, a.Reason, rateLimited, uint64(a.OccurredAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves all attempts for a wallet, ordered by occurred_at ASC.
func (s *FundingAttemptStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.FundingAttempt, error) {
	query := `
		SELECT provider, wallet, lamports, attempt, outcome, signature, reason, rate_limited, occurred_at
		FROM funding_attempts
		WHERE wallet = ?
		ORDER BY occurred_at ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// GetByProvider retrieves all attempts through a provider, ordered by occurred_at ASC.
func (s *FundingAttemptStore) GetByProvider(ctx context.Context, provider string) ([]*domain.FundingAttempt, error) {
	query := `
		SELECT provider, wallet, lamports, attempt, outcome, signature, reason, rate_limited, occurred_at
		FROM funding_attempts
		WHERE provider = ?
		ORDER BY occurred_at ASC
	`

	rows, err := s.conn.Query(ctx, query, provider)
	if err != nil {
		return nil, fmt.Errorf("query by provider: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// GetByTimeRange retrieves attempts for a wallet within [start, end] (inclusive).
func (s *FundingAttemptStore) GetByTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.FundingAttempt, error) {
	query := `
		SELECT provider, wallet, lamports, attempt, outcome, signature, reason, rate_limited, occurred_at
		FROM funding_attempts
		WHERE wallet = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// scanAttempts scans multiple rows.
func scanAttempts(rows driver.Rows) ([]*domain.FundingAttempt, error) {
	var attempts []*domain.FundingAttempt

	for rows.Next() {
		var a domain.FundingAttempt
		var attempt uint16
		var outcomeStr string
		var rateLimited uint8
		var occurredAt uint64

		err := rows.Scan(
			&a.Provider, &a.Wallet, &a.Lamports, &attempt,
			&outcomeStr, &a.Signature, &a.Reason, &rateLimited, &occurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}

		a.Attempt = int(attempt)
		a.Outcome = domain.AttemptOutcome(outcomeStr)
		a.RateLimited = rateLimited != 0
		a.OccurredAt = int64(occurredAt)
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}

	return attempts, nil
}
