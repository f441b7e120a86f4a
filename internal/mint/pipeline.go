package mint

import (
	"context"
	"errors"
	"time"

	"solana-nft-minter/internal/solana"
)

// DefaultConfirmTimeout bounds the wait for mint transaction finality.
const DefaultConfirmTimeout = 60 * time.Second

// Pipeline submits a built transaction exactly once and waits for
// confirmation. It never rebuilds or resubmits: a failed mint must be
// retried by the caller under a fresh mint identity, otherwise an ambiguous
// outcome could leave two live tokens for one user-visible action.
type Pipeline struct {
	client         solana.RPCClient
	notifier       solana.SignatureNotifier // optional push-based confirmation
	commitment     solana.Commitment
	confirmTimeout time.Duration
}

// NewPipeline creates a submission pipeline. notifier may be nil, in which
// case confirmation always polls over HTTP.
func NewPipeline(client solana.RPCClient, notifier solana.SignatureNotifier, commitment solana.Commitment, confirmTimeout time.Duration) *Pipeline {
	if commitment == "" {
		commitment = solana.CommitmentConfirmed
	}
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	return &Pipeline{
		client:         client,
		notifier:       notifier,
		commitment:     commitment,
		confirmTimeout: confirmTimeout,
	}
}

// SubmitAndConfirm sends the transaction and blocks until the ledger reports
// the requested commitment. Returns the transaction signature on success.
// An RPC rejection surfaces as *SubmissionError; an elapsed wait surfaces as
// *ConfirmationTimeoutError, which is ambiguous, not a proven failure.
func (p *Pipeline) SubmitAndConfirm(ctx context.Context, built *BuiltMint) (string, error) {
	signature, err := p.client.SendTransaction(ctx, built.Wire)
	if err != nil {
		return "", &SubmissionError{Err: err}
	}

	if err := p.confirm(ctx, signature); err != nil {
		if errors.Is(err, solana.ErrConfirmationTimeout) {
			return signature, &ConfirmationTimeoutError{
				MintAddress:  built.MintAddress,
				Signature:    signature,
				TokenAccount: built.TokenAccount,
			}
		}
		return signature, &SubmissionError{Signature: signature, Err: err}
	}

	return signature, nil
}

// confirm waits for the signature over the WebSocket stream when available
// and falls back to HTTP status polling when the stream is unavailable,
// drops, or misses the notification.
func (p *Pipeline) confirm(ctx context.Context, signature string) error {
	if p.notifier == nil {
		return p.client.ConfirmTransaction(ctx, signature, p.commitment, p.confirmTimeout)
	}

	deadline := time.Now().Add(p.confirmTimeout)

	ch, err := p.notifier.SignatureSubscribe(ctx, signature, p.commitment)
	if err != nil {
		return p.client.ConfirmTransaction(ctx, signature, p.commitment, p.confirmTimeout)
	}

	// The subscription only fires for status changes after it was
	// registered; check once in case the signature already landed.
	if statuses, err := p.client.GetSignatureStatuses(ctx, []string{signature}); err == nil &&
		len(statuses) > 0 && statuses[0] != nil && statuses[0].Err == nil &&
		p.commitment.SatisfiedBy(statuses[0].ConfirmationStatus) {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result, ok := <-ch:
		if !ok {
			// Stream dropped; poll for the remaining window.
			return p.client.ConfirmTransaction(ctx, signature, p.commitment, time.Until(deadline))
		}
		if result.Err != nil {
			return errorFromLedger(result.Err)
		}
		return nil
	case <-time.After(time.Until(deadline)):
		// One final poll guards against a notification that raced the
		// subscription registration.
		return p.client.ConfirmTransaction(ctx, signature, p.commitment, time.Millisecond)
	}
}

// errorFromLedger wraps an on-chain execution error.
func errorFromLedger(ledgerErr interface{}) error {
	return &ledgerExecutionError{detail: ledgerErr}
}

type ledgerExecutionError struct {
	detail interface{}
}

func (e *ledgerExecutionError) Error() string {
	return "transaction failed on chain"
}

func (e *ledgerExecutionError) Is(target error) bool {
	return target == solana.ErrTransactionFailed
}
