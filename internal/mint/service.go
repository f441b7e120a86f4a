// Package mint implements the mint orchestration core: transaction
// assembly, submission with confirmation, ledger queries, and the service
// facade that serializes mint requests over the single operator wallet.
package mint

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/types"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/funding"
	"solana-nft-minter/internal/solana"
	"solana-nft-minter/internal/wallet"
)

// DefaultMinLamports is the balance floor checked before every mint. Below
// it the funding chain runs first.
const DefaultMinLamports = 1 * domain.LamportsPerSOL

// ReceiptSink persists one terminal receipt per mint request. Optional;
// persistence failures never fail the mint itself.
type ReceiptSink interface {
	InsertReceipt(ctx context.Context, receipt domain.MintReceipt) error
}

// MetricsSink receives mint lifecycle observations. Optional.
type MetricsSink interface {
	MintStarted()
	MintFinished(status domain.MintStatus, elapsed time.Duration)
	ConfirmationObserved(elapsed time.Duration)
}

// Service is the mint orchestration facade. One instance owns one operator
// wallet; mint requests are serialized with a mutex because they share the
// wallet's balance and signing key, and two concurrent mints could each pass
// the funding check against the same lamports.
type Service struct {
	wallet   *wallet.Wallet
	client   solana.RPCClient
	chain    *funding.Chain
	builder  *Builder
	pipeline *Pipeline
	query    *Query

	receipts ReceiptSink
	metrics  MetricsSink
	logger   *log.Logger

	minLamports uint64

	mu  sync.Mutex
	now func() time.Time
}

// ServiceOptions configures a Service. Zero fields fall back to defaults.
type ServiceOptions struct {
	// Receipts persists terminal mint outcomes. Optional.
	Receipts ReceiptSink

	// Metrics receives lifecycle observations. Optional.
	Metrics MetricsSink

	// Logger for request-level progress. Optional.
	Logger *log.Logger

	// MinLamports is the funding floor checked before each mint.
	MinLamports uint64
}

// NewService wires the orchestration facade.
func NewService(w *wallet.Wallet, client solana.RPCClient, chain *funding.Chain, builder *Builder, pipeline *Pipeline, opts ServiceOptions) *Service {
	s := &Service{
		wallet:      w,
		client:      client,
		chain:       chain,
		builder:     builder,
		pipeline:    pipeline,
		query:       NewQuery(client),
		receipts:    opts.Receipts,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		minLamports: opts.MinLamports,
		now:         time.Now,
	}
	if s.minLamports == 0 {
		s.minLamports = DefaultMinLamports
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// Mint runs one full mint request: fund the wallet if needed, generate a
// fresh mint identity, build and sign the transaction, submit it, and wait
// for confirmation. Each call uses a brand-new mint identity, so a retried
// request can never collide with a previous attempt's mint address.
func (s *Service) Mint(ctx context.Context, metadataURI string) (*domain.MintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	if s.metrics != nil {
		s.metrics.MintStarted()
	}

	result, err := s.mintLocked(ctx, metadataURI)

	if s.metrics != nil {
		s.metrics.MintFinished(statusOf(result, err), s.now().Sub(start))
	}
	return result, err
}

func (s *Service) mintLocked(ctx context.Context, metadataURI string) (*domain.MintResult, error) {
	owner := s.wallet.Address()

	if err := s.chain.EnsureFunded(ctx, owner, s.minLamports); err != nil {
		return nil, err
	}

	mintIdentity := types.NewAccount()
	built, err := s.builder.Build(ctx, s.wallet.Account, mintIdentity)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("mint built: mint=%s tokenAccount=%s", built.MintAddress, built.TokenAccount)

	submitStart := s.now()
	signature, err := s.pipeline.SubmitAndConfirm(ctx, built)
	if err != nil {
		s.record(ctx, built, signature, metadataURI, receiptStatus(err))
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ConfirmationObserved(s.now().Sub(submitStart))
	}

	s.logger.Printf("mint confirmed: mint=%s signature=%s", built.MintAddress, signature)

	// Post-confirmation verification is best effort: the read path may lag
	// the confirmation commitment, and a lagging replica must not turn a
	// confirmed mint into a reported failure.
	if details, verr := s.query.GetMintDetails(ctx, built.MintAddress, owner); verr != nil {
		s.logger.Printf("mint verification skipped: mint=%s err=%v", built.MintAddress, verr)
	} else if details.Supply != 1 || details.Amount != "1" {
		s.logger.Printf("mint verification mismatch: mint=%s supply=%d amount=%s",
			built.MintAddress, details.Supply, details.Amount)
	}

	s.record(ctx, built, signature, metadataURI, domain.MintStatusConfirmed)

	return &domain.MintResult{
		MintAddress:  built.MintAddress,
		Signature:    signature,
		TokenAccount: built.TokenAccount,
		MetadataURI:  metadataURI,
	}, nil
}

// EnsureFunded runs the funding chain against the operator wallet without
// minting.
func (s *Service) EnsureFunded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain.EnsureFunded(ctx, s.wallet.Address(), s.minLamports)
}

// GetDetails fetches ledger state for one mint held by the operator wallet.
func (s *Service) GetDetails(ctx context.Context, mintAddress string) (*domain.MintDetails, error) {
	return s.query.GetMintDetails(ctx, mintAddress, s.wallet.Address())
}

// ListOwned enumerates the operator wallet's single-edition tokens.
func (s *Service) ListOwned(ctx context.Context) ([]domain.OwnedToken, error) {
	return s.query.ListOwned(ctx, s.wallet.Address())
}

// Balance returns the operator wallet balance in lamports.
func (s *Service) Balance(ctx context.Context) (uint64, error) {
	return s.client.GetBalance(ctx, s.wallet.Address())
}

// WalletAddress returns the operator wallet public key in base58.
func (s *Service) WalletAddress() string {
	return s.wallet.Address()
}

// record persists a terminal receipt. Failures are logged, never surfaced:
// the ledger, not the receipt store, is the source of truth.
func (s *Service) record(ctx context.Context, built *BuiltMint, signature, metadataURI string, status domain.MintStatus) {
	if s.receipts == nil {
		return
	}
	receipt := domain.MintReceipt{
		MintAddress:  built.MintAddress,
		Signature:    signature,
		TokenAccount: built.TokenAccount,
		MetadataURI:  metadataURI,
		Status:       status,
		CreatedAt:    s.now().UnixMilli(),
	}
	if err := s.receipts.InsertReceipt(ctx, receipt); err != nil {
		s.logger.Printf("receipt insert failed: mint=%s err=%v", built.MintAddress, err)
	}
}

// receiptStatus maps a pipeline error to the receipt status. An ambiguous
// confirmation timeout stays SUBMITTED; everything else is FAILED.
func receiptStatus(err error) domain.MintStatus {
	var timeout *ConfirmationTimeoutError
	if errors.As(err, &timeout) {
		return domain.MintStatusSubmitted
	}
	return domain.MintStatusFailed
}

func statusOf(result *domain.MintResult, err error) domain.MintStatus {
	if err == nil && result != nil {
		return domain.MintStatusConfirmed
	}
	return receiptStatus(err)
}
