package mint

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/types"

	"solana-nft-minter/internal/solana"
)

// DefaultProgramID is the deployed mint program. It exposes one operation,
// mint_nft: create the mint, mint exactly one unit to the payer's associated
// token account (creating it if needed), and burn the mint authority.
const DefaultProgramID = "DDnZChV4nH945pGZtCtojVq8jztZxFN6VYMeoBKmxE4t"

// Builder assembles signed mint transactions. Building only reads ledger
// state (existence check, blockhash); it never mutates it.
type Builder struct {
	client    solana.RPCClient
	programID common.PublicKey

	// createTokenAccount prepends an explicit create-ATA instruction. The
	// deployed program init_if_needed's the token account itself, so this
	// stays off; it exists for program deployments that stop doing so.
	createTokenAccount bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCreateTokenAccount makes the builder prepend an explicit
// create-associated-token-account instruction when the account is missing.
func WithCreateTokenAccount() BuilderOption {
	return func(b *Builder) {
		b.createTokenAccount = true
	}
}

// NewBuilder creates a Builder for the given on-chain program.
func NewBuilder(client solana.RPCClient, programID string, opts ...BuilderOption) (*Builder, error) {
	if !solana.ValidAddress(programID) {
		return nil, &BuildError{Reason: fmt.Sprintf("invalid program id %q", programID)}
	}
	b := &Builder{
		client:    client,
		programID: common.PublicKeyFromString(programID),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// BuiltMint is a signed, ready-to-submit mint transaction.
type BuiltMint struct {
	MintAddress  string // base58 mint account address
	TokenAccount string // derived associated token account
	Wire         []byte // serialized signed transaction
}

// Build constructs and signs the mint transaction for a freshly generated
// mint identity. Both the payer (fee payer and authority) and the mint
// identity sign: the mint address's private control briefly attests to its
// own creation. A stale blockhash invalidates an unsent transaction; the
// caller rebuilds rather than re-signing.
func (b *Builder) Build(ctx context.Context, payer types.Account, mintIdentity types.Account) (*BuiltMint, error) {
	owner := payer.PublicKey

	if !solana.IsOnCurve(owner.Bytes()) {
		return nil, &BuildError{Reason: fmt.Sprintf("owner %s is off-curve", owner.ToBase58())}
	}

	ata, _, err := common.FindAssociatedTokenAddress(owner, mintIdentity.PublicKey)
	if err != nil {
		return nil, &BuildError{Reason: "derive associated token account", Err: err}
	}

	// Existence check. A lookup failure means "does not exist", not an
	// error: the program tolerates both states.
	exists := false
	if info, err := b.client.GetAccountInfo(ctx, ata.ToBase58()); err == nil && info != nil {
		exists = true
	}

	var instructions []types.Instruction
	if b.createTokenAccount && !exists {
		instructions = append(instructions, associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 owner,
				Owner:                  owner,
				Mint:                   mintIdentity.PublicKey,
				AssociatedTokenAccount: ata,
			},
		))
	}
	instructions = append(instructions, b.mintInstruction(owner, mintIdentity.PublicKey, ata))

	blockhash, err := b.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, &BuildError{Reason: "fetch recent blockhash", Err: err}
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{payer, mintIdentity},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        owner,
			RecentBlockhash: blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return nil, &BuildError{Reason: "assemble transaction", Err: err}
	}

	wire, err := tx.Serialize()
	if err != nil {
		return nil, &BuildError{Reason: "serialize transaction", Err: err}
	}

	return &BuiltMint{
		MintAddress:  mintIdentity.PublicKey.ToBase58(),
		TokenAccount: ata.ToBase58(),
		Wire:         wire,
	}, nil
}

// mintInstruction builds the opaque mint_nft program instruction. Account
// order is fixed by the program's instruction contract.
func (b *Builder) mintInstruction(payer, mint, ata common.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: b.programID,
		Accounts: []types.AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: mint, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsSigner: false, IsWritable: true},
			{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SPLAssociatedTokenAccountProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SysVarRentPubkey, IsSigner: false, IsWritable: false},
		},
		Data: anchorDiscriminator("mint_nft"),
	}
}

// anchorDiscriminator derives the 8-byte Anchor instruction discriminator.
func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// DeriveTokenAccount computes the deterministic associated token account for
// a (mint, owner) pair. Never stored, always recomputed; the derivation is
// injective in the mint identity.
func DeriveTokenAccount(mintAddress, owner string) (string, error) {
	if !solana.ValidAddress(mintAddress) {
		return "", fmt.Errorf("invalid mint address %q", mintAddress)
	}
	if !solana.ValidAddress(owner) {
		return "", fmt.Errorf("invalid owner address %q", owner)
	}
	ata, _, err := common.FindAssociatedTokenAddress(
		common.PublicKeyFromString(owner),
		common.PublicKeyFromString(mintAddress),
	)
	if err != nil {
		return "", fmt.Errorf("derive associated token account: %w", err)
	}
	return ata.ToBase58(), nil
}
