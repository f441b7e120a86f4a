// Package main runs the NFT minting API server: funding acquisition, mint
// orchestration, ledger queries, and the HTTP surface, wired over the
// configured stores.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/funding"
	"solana-nft-minter/internal/httpapi"
	"solana-nft-minter/internal/mint"
	"solana-nft-minter/internal/observability"
	"solana-nft-minter/internal/solana"
	"solana-nft-minter/internal/storage"
	chstore "solana-nft-minter/internal/storage/clickhouse"
	"solana-nft-minter/internal/storage/memory"
	"solana-nft-minter/internal/storage/migrations"
	pgstore "solana-nft-minter/internal/storage/postgres"
	"solana-nft-minter/internal/wallet"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", solana.DevnetRPCEndpoint), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, enables push confirmations)")
	programID := flag.String("program-id", envOr("ANCHOR_PROGRAM_ID", mint.DefaultProgramID), "Deployed mint program ID")
	walletPath := flag.String("wallet-path", envOr("WALLET_PATH", wallet.DefaultPath), "Operator keypair file")
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":3001"), "API listen address")
	baseURL := flag.String("base-url", envOr("BASE_URL", "http://localhost:3001"), "Externally reachable URL prefix for served files")
	uploadDir := flag.String("upload-dir", envOr("UPLOAD_DIR", "uploads"), "Directory for processed images and metadata")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for mint receipts")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for funding attempt log")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of external databases")
	altProviders := flag.String("fallback-endpoints", os.Getenv("FALLBACK_RPC_ENDPOINTS"), "Comma-separated fallback airdrop RPC endpoints")
	minBalanceSOL := flag.Float64("min-balance-sol", 1.0, "Balance floor in SOL checked before each mint")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" && *clickhouseDSN == "" {
		logger.Println("No store DSNs configured, falling back to in-memory storage")
		*useMemory = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Operator wallet
	w, err := wallet.Load(*walletPath)
	if err != nil {
		logger.Fatalf("Failed to load wallet: %v", err)
	}
	logger.Printf("Operator wallet: %s (%s)", w.Address(), w.Path())

	metrics := observability.NewMetrics("")
	go metrics.TrackUptime(ctx)

	// Ledger clients
	rpc := solana.NewHTTPClient(*rpcEndpoint, solana.WithCallObserver(metrics.ObserveRPC))

	var notifier solana.SignatureNotifier
	if *wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Printf("WebSocket connect failed, confirmations will poll: %v", err)
		} else {
			defer ws.Close()
			notifier = ws
		}
	}

	// Stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Funding chain: the configured endpoint is the primary airdrop source,
	// then any fallback endpoints, then Helius when an API key is present.
	providers := []funding.Provider{funding.NewClientProvider("devnet", rpc)}
	for i, endpoint := range splitList(*altProviders) {
		providers = append(providers, funding.NewRPCProvider(fmt.Sprintf("fallback-%d", i+1), endpoint))
	}
	if helius, ok := funding.NewHeliusProvider(); ok {
		providers = append(providers, helius)
		logger.Println("Helius fallback provider enabled")
	}

	chain := funding.NewChain(rpc, funding.Options{
		Providers: providers,
		Recorder: fanoutRecorder{
			metrics,
			&attemptRecorder{store: stores.attempts, logger: logger},
		},
		Observer: metrics,
		Logger:   log.New(os.Stdout, "[funding] ", log.LstdFlags),
	})

	// Mint orchestration
	builder, err := mint.NewBuilder(rpc, *programID)
	if err != nil {
		logger.Fatalf("Failed to create builder: %v", err)
	}
	pipeline := mint.NewPipeline(rpc, notifier, solana.CommitmentConfirmed, mint.DefaultConfirmTimeout)

	svc := mint.NewService(w, rpc, chain, builder, pipeline, mint.ServiceOptions{
		Receipts:    &receiptSink{store: stores.receipts},
		Metrics:     metrics,
		Logger:      log.New(os.Stdout, "[mint] ", log.LstdFlags),
		MinLamports: uint64(*minBalanceSOL * float64(domain.LamportsPerSOL)),
	})

	api := httpapi.NewServer(svc, httpapi.Options{
		UploadDir: *uploadDir,
		BaseURL:   *baseURL,
		Metrics:   metrics,
		Logger:    log.New(os.Stdout, "[http] ", log.LstdFlags),
	})

	// Metrics endpoint on its own listener
	go startMetricsServer(*metricsAddr, logger)

	server := &http.Server{
		Addr:              *listenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Graceful shutdown failed: %v", err)
		}

		// Second signal forces immediate exit
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-shutdownCtx.Done():
		}
	}()

	logger.Printf("Listening on %s (program %s, rpc %s)", *listenAddr, *programID, *rpcEndpoint)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// allStores holds the storage implementations.
type allStores struct {
	receipts storage.MintReceiptStore
	attempts storage.FundingAttemptStore
}

// createStores creates the receipt and attempt stores, running migrations
// for whichever external databases are configured. Either DSN may be empty;
// the missing store falls back to memory.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			receipts: memory.NewMintReceiptStore(),
			attempts: memory.NewFundingAttemptStore(),
		}
		return stores, func() {}, nil
	}

	stores := &allStores{
		receipts: memory.NewMintReceiptStore(),
		attempts: memory.NewFundingAttemptStore(),
	}
	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		stores.receipts = pgstore.NewMintReceiptStore(pool)
		cleanups = append(cleanups, pool.Close)
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.attempts = chstore.NewFundingAttemptStore(conn)
		cleanups = append(cleanups, func() { conn.Close() })
	}

	return stores, cleanup, nil
}

// receiptSink adapts a MintReceiptStore to the mint service contract.
type receiptSink struct {
	store storage.MintReceiptStore
}

func (s *receiptSink) InsertReceipt(ctx context.Context, receipt domain.MintReceipt) error {
	return s.store.Insert(ctx, &receipt)
}

// attemptRecorder persists funding attempts, logging instead of failing:
// the attempt log is observability, not correctness.
type attemptRecorder struct {
	store  storage.FundingAttemptStore
	logger *log.Logger
}

func (r *attemptRecorder) Record(ctx context.Context, attempt domain.FundingAttempt) {
	if err := r.store.Insert(ctx, &attempt); err != nil {
		r.logger.Printf("Failed to record funding attempt: %v", err)
	}
}

// fanoutRecorder forwards each attempt to every recorder.
type fanoutRecorder []funding.Recorder

func (f fanoutRecorder) Record(ctx context.Context, attempt domain.FundingAttempt) {
	for _, r := range f {
		r.Record(ctx, attempt)
	}
}

// startMetricsServer serves Prometheus metrics and a liveness probe.
func startMetricsServer(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Printf("Metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
