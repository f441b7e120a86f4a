// Package stub provides an in-memory RPCClient for testing the funding
// chain and the mint pipeline without a network.
package stub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solana-nft-minter/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. All maps may be
// mutated between calls to script multi-step scenarios.
type RPCClient struct {
	mu sync.Mutex

	// Balances maps address to lamports.
	Balances map[string]uint64

	// Accounts maps address to raw account state.
	Accounts map[string]*solana.AccountInfo

	// TokenAccounts maps owner to parsed token accounts.
	TokenAccounts map[string][]solana.ParsedTokenAccount

	// Statuses maps signature to its reported status.
	Statuses map[string]*solana.SignatureStatus

	// Blockhash returned by GetLatestBlockhash.
	Blockhash string

	// SendResult and SendErr script SendTransaction.
	SendResult string
	SendErr    error

	// AirdropSignature and AirdropErr script RequestAirdrop.
	AirdropSignature string
	AirdropErr       error

	// AirdropCredits, when true, credits the airdropped lamports to the
	// balance and marks the signature finalized.
	AirdropCredits bool

	// RentExemption returned by GetMinimumBalanceForRentExemption.
	RentExemption uint64

	// Call log
	SentTransactions [][]byte
	AirdropCalls     int
	BalanceCalls     int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		Accounts:      make(map[string]*solana.AccountInfo),
		TokenAccounts: make(map[string][]solana.ParsedTokenAccount),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Blockhash:     "FwRYtTPRk5N4wUeP87rTw9kQVSwigB6kbikGzzeCMrW5",
	}
}

// GetBalance returns the scripted balance for an address.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BalanceCalls++
	return c.Balances[address], nil
}

// GetLatestBlockhash returns the scripted blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Blockhash, nil
}

// SendTransaction records the wire transaction and returns the scripted result.
func (c *RPCClient) SendTransaction(_ context.Context, wireTx []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	tx := make([]byte, len(wireTx))
	copy(tx, wireTx)
	c.SentTransactions = append(c.SentTransactions, tx)
	if c.SendResult == "" {
		return fmt.Sprintf("stubsig%d", len(c.SentTransactions)), nil
	}
	return c.SendResult, nil
}

// GetSignatureStatuses returns scripted statuses; nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}

// ConfirmTransaction resolves immediately from the scripted statuses.
func (c *RPCClient) ConfirmTransaction(_ context.Context, signature string, commitment solana.Commitment, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.Statuses[signature]
	if !ok {
		return fmt.Errorf("%w: %s not %s", solana.ErrConfirmationTimeout, signature, commitment)
	}
	if status.Err != nil {
		return fmt.Errorf("%w: %v", solana.ErrTransactionFailed, status.Err)
	}
	return nil
}

// GetAccountInfo returns the scripted account, nil if absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, address string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[address], nil
}

// GetTokenAccountsByOwner returns the scripted token accounts for an owner.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.ParsedTokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenAccounts[owner], nil
}

// RequestAirdrop returns the scripted signature or error; with AirdropCredits
// set it also credits the balance and finalizes the signature.
func (c *RPCClient) RequestAirdrop(_ context.Context, address string, lamports uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AirdropCalls++
	if c.AirdropErr != nil {
		return "", c.AirdropErr
	}
	sig := c.AirdropSignature
	if sig == "" {
		sig = fmt.Sprintf("airdropsig%d", c.AirdropCalls)
	}
	if c.AirdropCredits {
		c.Balances[address] += lamports
		c.Statuses[sig] = &solana.SignatureStatus{ConfirmationStatus: "finalized"}
	}
	return sig, nil
}

// GetMinimumBalanceForRentExemption returns the scripted rent exemption.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.RentExemption, nil
}

// SetBalance sets the scripted balance for an address.
func (c *RPCClient) SetBalance(address string, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[address] = lamports
}

// SetAccount sets the scripted account state for an address.
func (c *RPCClient) SetAccount(address string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[address] = info
}

// SetStatus sets the scripted status for a signature.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)
