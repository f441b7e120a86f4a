package solana

// TokenProgramID is the SPL token program address.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// DevnetRPCEndpoint is the public devnet RPC endpoint, used as the default
// ledger endpoint and as the primary airdrop source.
const DevnetRPCEndpoint = "https://api.devnet.solana.com"

// SignatureStatus is one entry from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64     // nil once rooted
	ConfirmationStatus string      // processed | confirmed | finalized
	Err                interface{} // non-nil if the transaction failed on chain
}

// AccountInfo represents raw Solana account state.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte // decoded account data
	Executable bool
	RentEpoch  uint64
}

// ParsedTokenAccount is one jsonParsed token account from
// getTokenAccountsByOwner.
type ParsedTokenAccount struct {
	Pubkey   string // token account address
	Mint     string
	Owner    string
	Amount   string // raw token amount as a decimal string
	Decimals uint8
}
