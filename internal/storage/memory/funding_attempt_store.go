package memory

import (
	"context"
	"sort"
	"sync"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/storage"
)

// FundingAttemptStore is an in-memory implementation of storage.FundingAttemptStore.
type FundingAttemptStore struct {
	mu   sync.RWMutex
	data []*domain.FundingAttempt
}

// NewFundingAttemptStore creates a new in-memory funding attempt store.
func NewFundingAttemptStore() *FundingAttemptStore {
	return &FundingAttemptStore{}
}

// Insert adds a new attempt record.
func (s *FundingAttemptStore) Insert(_ context.Context, a *domain.FundingAttempt) error {
	if a == nil || a.Provider == "" || a.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attemptCopy := *a
	s.data = append(s.data, &attemptCopy)
	return nil
}

// InsertBulk adds multiple attempt records.
func (s *FundingAttemptStore) InsertBulk(ctx context.Context, attempts []*domain.FundingAttempt) error {
	for _, a := range attempts {
		if a == nil || a.Provider == "" || a.Wallet == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, a := range attempts {
		if err := s.Insert(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// GetByWallet retrieves all attempts for a wallet, ordered by occurred_at ASC.
func (s *FundingAttemptStore) GetByWallet(_ context.Context, wallet string) ([]*domain.FundingAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FundingAttempt
	for _, a := range s.data {
		if a.Wallet == wallet {
			attemptCopy := *a
			result = append(result, &attemptCopy)
		}
	}

	sortAttempts(result)
	return result, nil
}

// GetByProvider retrieves all attempts through a provider, ordered by occurred_at ASC.
func (s *FundingAttemptStore) GetByProvider(_ context.Context, provider string) ([]*domain.FundingAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FundingAttempt
	for _, a := range s.data {
		if a.Provider == provider {
			attemptCopy := *a
			result = append(result, &attemptCopy)
		}
	}

	sortAttempts(result)
	return result, nil
}

// GetByTimeRange retrieves attempts for a wallet within [start, end] (inclusive).
func (s *FundingAttemptStore) GetByTimeRange(_ context.Context, wallet string, start, end int64) ([]*domain.FundingAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FundingAttempt
	for _, a := range s.data {
		if a.Wallet == wallet && a.OccurredAt >= start && a.OccurredAt <= end {
			attemptCopy := *a
			result = append(result, &attemptCopy)
		}
	}

	sortAttempts(result)
	return result, nil
}

// sortAttempts orders by occurred_at ASC with attempt number as tiebreaker.
func sortAttempts(attempts []*domain.FundingAttempt) {
	sort.Slice(attempts, func(i, j int) bool {
		if attempts[i].OccurredAt != attempts[j].OccurredAt {
			return attempts[i].OccurredAt < attempts[j].OccurredAt
		}
		return attempts[i].Attempt < attempts[j].Attempt
	})
}

// Verify interface compliance at compile time.
var _ storage.FundingAttemptStore = (*FundingAttemptStore)(nil)
