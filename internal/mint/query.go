package mint

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/solana"
)

// SPL account layout offsets. Mint accounts carry the supply as a u64 at
// byte 36 and decimals at byte 44; token accounts carry the owner at bytes
// 32..64 and the raw amount as a u64 at byte 64.
const (
	mintSupplyOffset   = 36
	mintDecimalsOffset = 44
	mintAccountMinLen  = 45

	tokenOwnerOffset  = 32
	tokenAmountOffset = 64
	tokenAccountLen   = 72
)

// Query reads mint and ownership state from the ledger. All operations are
// snapshots: they read, never mutate, and two calls may disagree if the
// ledger moved between them.
type Query struct {
	client solana.RPCClient
}

// NewQuery creates a read-only query layer over the ledger client.
func NewQuery(client solana.RPCClient) *Query {
	return &Query{client: client}
}

// GetMintDetails fetches the mint account and the owner's associated token
// account for it. Returns ErrNotFound when either the mint or the token
// account does not exist.
func (q *Query) GetMintDetails(ctx context.Context, mintAddress, owner string) (*domain.MintDetails, error) {
	if !solana.ValidAddress(mintAddress) {
		return nil, &BuildError{Reason: fmt.Sprintf("invalid mint address %q", mintAddress)}
	}
	if !solana.ValidAddress(owner) {
		return nil, &BuildError{Reason: fmt.Sprintf("invalid owner address %q", owner)}
	}

	mintInfo, err := q.client.GetAccountInfo(ctx, mintAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch mint account: %w", err)
	}
	if mintInfo == nil {
		return nil, fmt.Errorf("mint %s: %w", mintAddress, ErrNotFound)
	}

	supply, decimals, err := parseMintAccount(mintInfo.Data)
	if err != nil {
		return nil, fmt.Errorf("mint %s: %w", mintAddress, err)
	}

	ata, err := DeriveTokenAccount(mintAddress, owner)
	if err != nil {
		return nil, err
	}

	tokenInfo, err := q.client.GetAccountInfo(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("fetch token account: %w", err)
	}
	if tokenInfo == nil {
		return nil, fmt.Errorf("token account %s: %w", ata, ErrNotFound)
	}

	tokenOwner, amount, err := parseTokenAccount(tokenInfo.Data)
	if err != nil {
		return nil, fmt.Errorf("token account %s: %w", ata, err)
	}

	return &domain.MintDetails{
		MintAddress:  mintAddress,
		Supply:       supply,
		Decimals:     decimals,
		TokenAccount: ata,
		Amount:       fmt.Sprintf("%d", amount),
		Owner:        tokenOwner,
	}, nil
}

// ListOwned enumerates the wallet's single-edition tokens: token accounts
// whose raw amount is exactly "1" with zero decimals. Fungible balances and
// emptied accounts are filtered out.
func (q *Query) ListOwned(ctx context.Context, owner string) ([]domain.OwnedToken, error) {
	if !solana.ValidAddress(owner) {
		return nil, &BuildError{Reason: fmt.Sprintf("invalid owner address %q", owner)}
	}

	accounts, err := q.client.GetTokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list token accounts: %w", err)
	}

	tokens := make([]domain.OwnedToken, 0, len(accounts))
	for _, account := range accounts {
		if account.Amount != "1" || account.Decimals != 0 {
			continue
		}
		tokens = append(tokens, domain.OwnedToken{
			MintAddress: account.Mint,
			Amount:      account.Amount,
			Owner:       owner,
		})
	}
	return tokens, nil
}

// parseMintAccount extracts supply and decimals from raw SPL mint account
// data.
func parseMintAccount(data []byte) (supply uint64, decimals uint8, err error) {
	if len(data) < mintAccountMinLen {
		return 0, 0, fmt.Errorf("mint account data too short: %d bytes", len(data))
	}
	supply = binary.LittleEndian.Uint64(data[mintSupplyOffset : mintSupplyOffset+8])
	decimals = data[mintDecimalsOffset]
	return supply, decimals, nil
}

// parseTokenAccount extracts the owner and raw amount from raw SPL token
// account data.
func parseTokenAccount(data []byte) (owner string, amount uint64, err error) {
	if len(data) < tokenAccountLen {
		return "", 0, fmt.Errorf("token account data too short: %d bytes", len(data))
	}
	owner = base58.Encode(data[tokenOwnerOffset : tokenOwnerOffset+32])
	amount = binary.LittleEndian.Uint64(data[tokenAmountOffset : tokenAmountOffset+8])
	return owner, amount, nil
}
