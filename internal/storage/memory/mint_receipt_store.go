// Package memory provides in-memory store implementations for tests and for
// running without external databases.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/storage"
)

// MintReceiptStore is an in-memory implementation of storage.MintReceiptStore.
type MintReceiptStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MintReceipt // keyed by mint_address
}

// NewMintReceiptStore creates a new in-memory receipt store.
func NewMintReceiptStore() *MintReceiptStore {
	return &MintReceiptStore{
		data: make(map[string]*domain.MintReceipt),
	}
}

// Insert adds a new receipt. Returns ErrDuplicateKey if mint_address exists.
func (s *MintReceiptStore) Insert(_ context.Context, r *domain.MintReceipt) error {
	if r == nil || r.MintAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.MintAddress]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	receiptCopy := *r
	s.data[r.MintAddress] = &receiptCopy
	return nil
}

// GetByMint retrieves a receipt by mint address. Returns ErrNotFound if not exists.
func (s *MintReceiptStore) GetByMint(_ context.Context, mintAddress string) (*domain.MintReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[mintAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	receiptCopy := *r
	return &receiptCopy, nil
}

// GetByStatus retrieves all receipts with the given status, ordered by created_at ASC.
func (s *MintReceiptStore) GetByStatus(_ context.Context, status domain.MintStatus) ([]*domain.MintReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MintReceipt
	for _, r := range s.data {
		if r.Status == status {
			receiptCopy := *r
			result = append(result, &receiptCopy)
		}
	}

	sortReceipts(result)
	return result, nil
}

// GetByTimeRange retrieves receipts created within [start, end] (inclusive).
func (s *MintReceiptStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.MintReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MintReceipt
	for _, r := range s.data {
		if r.CreatedAt >= start && r.CreatedAt <= end {
			receiptCopy := *r
			result = append(result, &receiptCopy)
		}
	}

	sortReceipts(result)
	return result, nil
}

// sortReceipts orders by created_at ASC with mint_address as tiebreaker.
func sortReceipts(receipts []*domain.MintReceipt) {
	sort.Slice(receipts, func(i, j int) bool {
		if receipts[i].CreatedAt != receipts[j].CreatedAt {
			return receipts[i].CreatedAt < receipts[j].CreatedAt
		}
		return receipts[i].MintAddress < receipts[j].MintAddress
	})
}

// Verify interface compliance at compile time.
var _ storage.MintReceiptStore = (*MintReceiptStore)(nil)
