package domain

// Lamports conversion factor. All balances are tracked in lamports.
const LamportsPerSOL uint64 = 1_000_000_000

// MintStatus tracks the lifecycle of a mint request.
type MintStatus string

const (
	MintStatusBuilt     MintStatus = "BUILT"
	MintStatusSubmitted MintStatus = "SUBMITTED"
	MintStatusConfirmed MintStatus = "CONFIRMED"
	MintStatusFailed    MintStatus = "FAILED"
)

// MintResult is the terminal outcome of a successful mint.
type MintResult struct {
	MintAddress  string // base58 mint account address
	Signature    string // transaction signature
	TokenAccount string // associated token account holding the minted token
	MetadataURI  string // off-chain metadata reference embedded in the request
}

// MintDetails is a snapshot of mint and token account state on the ledger.
type MintDetails struct {
	MintAddress  string
	Supply       uint64 // raw supply from the mint account
	Decimals     uint8
	TokenAccount string // associated token account for the queried owner
	Amount       string // token amount as reported by the ledger
	Owner        string // token account owner
}

// OwnedToken is one single-edition token held by the wallet.
// Only accounts with amount exactly "1" and 0 decimals qualify.
type OwnedToken struct {
	MintAddress string
	Amount      string
	Owner       string
}

// MintReceipt records one mint request outcome for the operator.
// Corresponds to mint_receipts table in PostgreSQL.
type MintReceipt struct {
	MintAddress  string     // PRIMARY KEY
	Signature    string     // transaction signature, empty until submitted
	TokenAccount string     // derived associated token account
	MetadataURI  string     // off-chain metadata reference
	Status       MintStatus // BUILT | SUBMITTED | CONFIRMED | FAILED
	CreatedAt    int64      // Unix timestamp in milliseconds
}
