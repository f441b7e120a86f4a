package funding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"solana-nft-minter/internal/solana"
)

// ErrProviderUnavailable marks a provider that cannot serve requests at all
// (unreachable endpoint, missing credentials). Not retryable for that
// provider; the chain moves to the next one.
var ErrProviderUnavailable = errors.New("funding provider unavailable")

// rateLimitMarkers are the failure-reason phrases that classify a provider
// error as a rate limit. Airdrop endpoints report limits inconsistently, as
// an HTTP status, a numeric code in the message, or a phrase.
var rateLimitMarkers = []string{
	"429",
	"rate limit",
	"Too Many Requests",
}

// IsRateLimited reports whether a provider failure should be retried with
// backoff rather than falling through to the next provider.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, solana.ErrRateLimited) {
		return true
	}
	msg := err.Error()
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ExhaustedError is the terminal failure after every provider was tried.
// It carries the remediation payload surfaced to the user: funding outages
// are expected, not exceptional, so the response must be actionable.
type ExhaustedError struct {
	Wallet      string
	Tried       []string // provider identifiers in the order attempted
	Remediation []string // manual alternatives
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all funding providers failed for wallet %s (tried: %s)",
		e.Wallet, strings.Join(e.Tried, ", "))
}

// DefaultRemediation lists the manual funding alternatives reported on
// exhaustion.
func DefaultRemediation() []string {
	return []string{
		"Wait 24 hours for rate limit to reset",
		"Use https://faucet.solana.com/ to manually get test SOL",
		"Try a different RPC provider (Helius, QuickNode)",
		"Use localnet for testing: solana-test-validator",
	}
}

// UnconfirmedError is raised when a provider accepted the funding request but
// the wallet balance never converged within the wait window.
type UnconfirmedError struct {
	Wallet    string
	Provider  string
	Signature string
	Window    time.Duration
}

func (e *UnconfirmedError) Error() string {
	return fmt.Sprintf("funding from %s accepted (signature %s) but wallet %s did not reach the minimum balance within %s",
		e.Provider, e.Signature, e.Wallet, e.Window)
}
