package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/storage"
)

// MintReceiptStore implements storage.MintReceiptStore using PostgreSQL.
type MintReceiptStore struct {
	pool *Pool
}

// NewMintReceiptStore creates a new MintReceiptStore.
func NewMintReceiptStore(pool *Pool) *MintReceiptStore {
	return &MintReceiptStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MintReceiptStore = (*MintReceiptStore)(nil)

// Insert adds a new receipt. Returns ErrDuplicateKey if mint_address exists.
func (s *MintReceiptStore) Insert(ctx context.Context, r *domain.MintReceipt) error {
	query := `
		INSERT INTO mint_receipts (
			mint_address, signature, token_account, metadata_uri, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		r.MintAddress,
		r.Signature,
		r.TokenAccount,
		r.MetadataURI,
		string(r.Status),
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert mint receipt: %w", err)
	}
	return nil
}

// GetByMint retrieves a receipt by mint address. Returns ErrNotFound if not exists.
func (s *MintReceiptStore) GetByMint(ctx context.Context, mintAddress string) (*domain.MintReceipt, error) {
	query := `
		SELECT mint_address, signature, token_account, metadata_uri, status, created_at
		FROM mint_receipts
		WHERE mint_address = $1
	`

	row := s.pool.QueryRow(ctx, query, mintAddress)
	r, err := scanReceipt(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get receipt by mint: %w", err)
	}
	return r, nil
}

// GetByStatus retrieves all receipts with the given status, ordered by created_at ASC.
func (s *MintReceiptStore) GetByStatus(ctx context.Context, status domain.MintStatus) ([]*domain.MintReceipt, error) {
	query := `
		SELECT mint_address, signature, token_account, metadata_uri, status, created_at
		FROM mint_receipts
		WHERE status = $1
		ORDER BY created_at ASC, mint_address ASC
	`

	rows, err := s.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("get receipts by status: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// GetByTimeRange retrieves receipts created within [start, end] (inclusive).
func (s *MintReceiptStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.MintReceipt, error) {
	query := `
		SELECT mint_address, signature, token_account, metadata_uri, status, created_at
		FROM mint_receipts
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, mint_address ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get receipts by time range: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// scanReceipt scans a single row into a MintReceipt.
func scanReceipt(row pgx.Row) (*domain.MintReceipt, error) {
	var r domain.MintReceipt
	var statusStr string

	err := row.Scan(
		&r.MintAddress,
		&r.Signature,
		&r.TokenAccount,
		&r.MetadataURI,
		&statusStr,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.MintStatus(statusStr)
	return &r, nil
}

// scanReceipts scans multiple rows into a slice of MintReceipt.
func scanReceipts(rows pgx.Rows) ([]*domain.MintReceipt, error) {
	var receipts []*domain.MintReceipt

	for rows.Next() {
		var r domain.MintReceipt
		var statusStr string

		err := rows.Scan(
			&r.MintAddress,
			&r.Signature,
			&r.TokenAccount,
			&r.MetadataURI,
			&statusStr,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan receipt row: %w", err)
		}

		r.Status = domain.MintStatus(statusStr)
		receipts = append(receipts, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipt rows: %w", err)
	}

	return receipts, nil
}
