// Package funding guarantees the operator wallet holds a minimum balance
// before a mint proceeds. A prioritized chain of airdrop providers is
// evaluated by a small state machine: the primary provider with bounded
// retries and rate-limit backoff, then each fallback once, then exhaustion.
package funding

import (
	"context"
	"io"
	"log"
	"time"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/solana"
)

// Default chain configuration.
const (
	DefaultMaxAttempts      = 3
	DefaultBaseDelay        = 2 * time.Second
	DefaultFundLamports     = 2 * domain.LamportsPerSOL
	DefaultConfirmTimeout   = 60 * time.Second
	DefaultConvergeTimeout  = 60 * time.Second
	DefaultConvergeInterval = 2 * time.Second
)

// chainState enumerates the funding state machine.
type chainState int

const (
	stateTryPrimary chainState = iota
	stateTryFallback
	stateSucceeded
	stateExhausted
)

// Recorder receives one record per provider invocation. Implementations must
// tolerate being called from the mint critical section, so they should not
// block on slow sinks.
type Recorder interface {
	Record(ctx context.Context, attempt domain.FundingAttempt)
}

// Observer receives chain-level observations that are not per-attempt
// records: wallet balance reads and full-chain exhaustion.
type Observer interface {
	WalletBalanceObserved(lamports uint64)
	FundingExhausted()
}

// Chain is the funding acquisition subsystem. The provider list is data, not
// control flow: index 0 is the primary, the rest are fallbacks in priority
// order.
type Chain struct {
	client    solana.RPCClient
	providers []Provider

	maxAttempts      int
	baseDelay        time.Duration
	fundLamports     uint64
	confirmTimeout   time.Duration
	convergeTimeout  time.Duration
	convergeInterval time.Duration
	commitment       solana.Commitment

	recorder Recorder
	observer Observer
	logger   *log.Logger

	// injectable timing for tests
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Options configures a Chain. Zero fields fall back to defaults.
type Options struct {
	// Providers in priority order; index 0 is the primary. Required.
	Providers []Provider

	// MaxAttempts bounds primary provider retries.
	MaxAttempts int

	// BaseDelay scales the rate-limit backoff: wait BaseDelay * attempt.
	BaseDelay time.Duration

	// FundLamports is the flat amount requested per funding call. The chain
	// over-funds on purpose instead of computing the exact deficit, to
	// reduce repeated funding calls.
	FundLamports uint64

	// ConfirmTimeout bounds the wait for the funding transaction.
	ConfirmTimeout time.Duration

	// ConvergeTimeout and ConvergeInterval bound the balance poll after a
	// confirmed funding transaction.
	ConvergeTimeout  time.Duration
	ConvergeInterval time.Duration

	// Commitment for funding confirmation.
	Commitment solana.Commitment

	// Recorder receives per-attempt records. Optional.
	Recorder Recorder

	// Observer receives balance reads and exhaustion events. Optional.
	Observer Observer

	// Logger for attempt-level progress. Optional.
	Logger *log.Logger
}

// NewChain creates a funding chain over the given ledger client.
func NewChain(client solana.RPCClient, opts Options) *Chain {
	c := &Chain{
		client:           client,
		providers:        opts.Providers,
		maxAttempts:      opts.MaxAttempts,
		baseDelay:        opts.BaseDelay,
		fundLamports:     opts.FundLamports,
		confirmTimeout:   opts.ConfirmTimeout,
		convergeTimeout:  opts.ConvergeTimeout,
		convergeInterval: opts.ConvergeInterval,
		commitment:       opts.Commitment,
		recorder:         opts.Recorder,
		observer:         opts.Observer,
		logger:           opts.Logger,
		sleep:            sleepCtx,
		now:              time.Now,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.baseDelay <= 0 {
		c.baseDelay = DefaultBaseDelay
	}
	if c.fundLamports == 0 {
		c.fundLamports = DefaultFundLamports
	}
	if c.confirmTimeout <= 0 {
		c.confirmTimeout = DefaultConfirmTimeout
	}
	if c.convergeTimeout <= 0 {
		c.convergeTimeout = DefaultConvergeTimeout
	}
	if c.convergeInterval <= 0 {
		c.convergeInterval = DefaultConvergeInterval
	}
	if c.commitment == "" {
		c.commitment = solana.CommitmentConfirmed
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

// funded is the successful outcome of the provider walk.
type funded struct {
	provider  string
	signature string
}

// EnsureFunded guarantees the wallet balance is at least minLamports.
// Balances already at or above the minimum return immediately with zero
// provider calls.
func (c *Chain) EnsureFunded(ctx context.Context, wallet string, minLamports uint64) error {
	balance, err := c.client.GetBalance(ctx, wallet)
	if err != nil {
		return err
	}
	c.observeBalance(balance)
	if balance >= minLamports {
		return nil
	}

	c.logger.Printf("balance %d below minimum %d, starting funding chain for %s", balance, minLamports, wallet)

	var (
		state         = stateTryPrimary
		fallbackIndex = 1
		tried         []string
		win           *funded
	)

	for state != stateSucceeded && state != stateExhausted {
		switch state {
		case stateTryPrimary:
			if len(c.providers) == 0 {
				state = stateExhausted
				break
			}
			win = c.tryPrimary(ctx, wallet)
			if win != nil {
				state = stateSucceeded
			} else {
				tried = append(tried, c.providers[0].Name())
				state = stateTryFallback
			}

		case stateTryFallback:
			if fallbackIndex >= len(c.providers) {
				state = stateExhausted
				break
			}
			provider := c.providers[fallbackIndex]
			fallbackIndex++

			sig, err := c.attempt(ctx, provider, wallet, 1)
			if err != nil {
				tried = append(tried, provider.Name())
				break
			}
			win = &funded{provider: provider.Name(), signature: sig}
			state = stateSucceeded
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if state == stateExhausted {
		if c.observer != nil {
			c.observer.FundingExhausted()
		}
		return &ExhaustedError{
			Wallet:      wallet,
			Tried:       tried,
			Remediation: DefaultRemediation(),
		}
	}

	return c.awaitConvergence(ctx, wallet, minLamports, win)
}

// tryPrimary runs the bounded retry loop against the primary provider.
// Rate-limited failures wait baseDelay * attempt before the next try;
// other failures retry immediately.
func (c *Chain) tryPrimary(ctx context.Context, wallet string) *funded {
	primary := c.providers[0]

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		sig, err := c.attempt(ctx, primary, wallet, attempt)
		if err == nil {
			return &funded{provider: primary.Name(), signature: sig}
		}

		if IsRateLimited(err) && attempt < c.maxAttempts {
			delay := c.baseDelay * time.Duration(attempt)
			c.logger.Printf("%s rate limited on attempt %d/%d, waiting %s", primary.Name(), attempt, c.maxAttempts, delay)
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil
			}
		}
	}

	return nil
}

// attempt performs one provider invocation and records its outcome.
func (c *Chain) attempt(ctx context.Context, provider Provider, wallet string, attempt int) (string, error) {
	sig, err := provider.RequestAirdrop(ctx, wallet, c.fundLamports)

	record := domain.FundingAttempt{
		Provider:   provider.Name(),
		Wallet:     wallet,
		Lamports:   c.fundLamports,
		Attempt:    attempt,
		OccurredAt: c.now().UnixMilli(),
	}
	if err != nil {
		record.Outcome = domain.AttemptFailed
		record.Reason = err.Error()
		record.RateLimited = IsRateLimited(err)
		c.logger.Printf("funding attempt failed: provider=%s attempt=%d err=%v", provider.Name(), attempt, err)
	} else {
		record.Outcome = domain.AttemptSucceeded
		record.Signature = sig
		c.logger.Printf("funding attempt succeeded: provider=%s attempt=%d signature=%s", provider.Name(), attempt, sig)
	}
	if c.recorder != nil {
		c.recorder.Record(ctx, record)
	}

	return sig, err
}

// awaitConvergence blocks until the funding transaction confirms and the
// balance reaches the minimum. A signature that never confirms, or a
// confirmed one whose credit never shows up, both resolve to
// *UnconfirmedError: the request was accepted but the wallet did not
// converge.
func (c *Chain) awaitConvergence(ctx context.Context, wallet string, minLamports uint64, win *funded) error {
	unconfirmed := &UnconfirmedError{
		Wallet:    wallet,
		Provider:  win.provider,
		Signature: win.signature,
		Window:    c.confirmTimeout + c.convergeTimeout,
	}

	if err := c.client.ConfirmTransaction(ctx, win.signature, c.commitment, c.confirmTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return unconfirmed
	}

	deadline := c.now().Add(c.convergeTimeout)
	for {
		balance, err := c.client.GetBalance(ctx, wallet)
		if err == nil {
			c.observeBalance(balance)
			if balance >= minLamports {
				c.logger.Printf("wallet %s funded: balance=%d", wallet, balance)
				return nil
			}
		}

		if c.now().After(deadline) {
			return unconfirmed
		}
		if serr := c.sleep(ctx, c.convergeInterval); serr != nil {
			return serr
		}
	}
}

// observeBalance forwards a balance read to the observer.
func (c *Chain) observeBalance(lamports uint64) {
	if c.observer != nil {
		c.observer.WalletBalanceObserved(lamports)
	}
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
