package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/storage"
)

func testReceipt(mint string, status domain.MintStatus, createdAt int64) *domain.MintReceipt {
	return &domain.MintReceipt{
		MintAddress:  mint,
		Signature:    "sig-" + mint,
		TokenAccount: "ata-" + mint,
		MetadataURI:  "https://example.com/" + mint + ".json",
		Status:       status,
		CreatedAt:    createdAt,
	}
}

func TestMintReceiptStore_InsertAndGet(t *testing.T) {
	store := NewMintReceiptStore()
	ctx := context.Background()

	receipt := testReceipt("mint1", domain.MintStatusConfirmed, 1000)
	require.NoError(t, store.Insert(ctx, receipt))

	got, err := store.GetByMint(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, receipt, got)

	// stored copy is isolated from the caller's struct
	receipt.Signature = "mutated"
	got2, err := store.GetByMint(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, "sig-mint1", got2.Signature)
}

func TestMintReceiptStore_InsertDuplicate(t *testing.T) {
	store := NewMintReceiptStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testReceipt("mint1", domain.MintStatusConfirmed, 1000)))

	err := store.Insert(ctx, testReceipt("mint1", domain.MintStatusFailed, 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestMintReceiptStore_InsertInvalid(t *testing.T) {
	store := NewMintReceiptStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.MintReceipt{}), storage.ErrInvalidInput)
}

func TestMintReceiptStore_GetByMintNotFound(t *testing.T) {
	store := NewMintReceiptStore()

	_, err := store.GetByMint(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMintReceiptStore_GetByStatus(t *testing.T) {
	store := NewMintReceiptStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testReceipt("mint2", domain.MintStatusConfirmed, 2000)))
	require.NoError(t, store.Insert(ctx, testReceipt("mint1", domain.MintStatusConfirmed, 1000)))
	require.NoError(t, store.Insert(ctx, testReceipt("mint3", domain.MintStatusFailed, 1500)))

	confirmed, err := store.GetByStatus(ctx, domain.MintStatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 2)
	assert.Equal(t, "mint1", confirmed[0].MintAddress, "ordered by created_at ASC")
	assert.Equal(t, "mint2", confirmed[1].MintAddress)

	submitted, err := store.GetByStatus(ctx, domain.MintStatusSubmitted)
	require.NoError(t, err)
	assert.Empty(t, submitted)
}

func TestMintReceiptStore_GetByTimeRange(t *testing.T) {
	store := NewMintReceiptStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testReceipt("mint1", domain.MintStatusConfirmed, 1000)))
	require.NoError(t, store.Insert(ctx, testReceipt("mint2", domain.MintStatusConfirmed, 2000)))
	require.NoError(t, store.Insert(ctx, testReceipt("mint3", domain.MintStatusConfirmed, 3000)))

	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2, "range bounds are inclusive")
	assert.Equal(t, "mint1", got[0].MintAddress)
	assert.Equal(t, "mint2", got[1].MintAddress)
}

func TestMintReceiptStore_TimeRangeTiebreaker(t *testing.T) {
	store := NewMintReceiptStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testReceipt("b", domain.MintStatusConfirmed, 1000)))
	require.NoError(t, store.Insert(ctx, testReceipt("a", domain.MintStatusConfirmed, 1000)))

	got, err := store.GetByTimeRange(ctx, 0, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].MintAddress, "equal timestamps order by mint_address")
}
