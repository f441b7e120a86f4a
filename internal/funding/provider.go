package funding

import (
	"context"
	"fmt"
	"os"

	"solana-nft-minter/internal/solana"
)

// HeliusAPIKeyEnv configures the Helius provider. The provider is skipped
// entirely when unset.
const HeliusAPIKeyEnv = "HELIUS_API_KEY"

// heliusDevnetEndpoint is the Helius devnet RPC URL template.
const heliusDevnetEndpoint = "https://devnet.helius-rpc.com/?api-key=%s"

// Provider is one airdrop source. Providers are stateless configuration:
// an identifier plus a request contract (address + amount -> signature).
type Provider interface {
	// Name returns the provider identifier used in attempt records and
	// remediation payloads.
	Name() string

	// RequestAirdrop asks the provider to credit the address and returns the
	// funding transaction signature.
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)
}

// RPCProvider funds through the requestAirdrop method of any RPC endpoint.
type RPCProvider struct {
	name   string
	client solana.RPCClient
}

// NewRPCProvider creates a provider for an RPC endpoint. The underlying
// client runs with transport retries disabled: the chain owns the retry and
// backoff policy, and double-retrying would distort it.
func NewRPCProvider(name, endpoint string) *RPCProvider {
	return &RPCProvider{
		name:   name,
		client: solana.NewHTTPClient(endpoint, solana.WithMaxRetries(0)),
	}
}

// NewClientProvider creates a provider on top of an existing client.
func NewClientProvider(name string, client solana.RPCClient) *RPCProvider {
	return &RPCProvider{name: name, client: client}
}

// Name returns the provider identifier.
func (p *RPCProvider) Name() string {
	return p.name
}

// RequestAirdrop requests funding from the provider endpoint. Rate limits
// keep their classification; every other failure is marked
// ErrProviderUnavailable so the chain moves on instead of backing off.
func (p *RPCProvider) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	sig, err := p.client.RequestAirdrop(ctx, address, lamports)
	if err != nil {
		if IsRateLimited(err) {
			return "", fmt.Errorf("%s airdrop: %w", p.name, err)
		}
		return "", fmt.Errorf("%s airdrop: %w: %w", p.name, ErrProviderUnavailable, err)
	}
	return sig, nil
}

// NewHeliusProvider creates the Helius devnet provider from the environment.
// Returns (nil, false) when no API key is configured.
func NewHeliusProvider() (*RPCProvider, bool) {
	key := os.Getenv(HeliusAPIKeyEnv)
	if key == "" {
		return nil, false
	}
	return NewRPCProvider("helius", fmt.Sprintf(heliusDevnetEndpoint, key)), true
}
