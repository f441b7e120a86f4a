package solana

import "context"

// SignatureNotifier delivers transaction confirmations pushed by the ledger.
// It is the fast path for the submission pipeline; HTTP status polling
// remains the fallback when no notifier is configured or the stream drops.
type SignatureNotifier interface {
	// SignatureSubscribe registers a one-shot subscription for a signature.
	// The returned channel receives exactly one result when the signature
	// reaches the commitment, then closes. The channel closes without a
	// value if the connection is lost before the notification arrives.
	SignatureSubscribe(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureResult, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureResult is a signatureNotification payload.
type SignatureResult struct {
	Slot int64
	Err  interface{} // non-nil if the transaction failed on chain
}
