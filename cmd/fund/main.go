// Package main is a CLI that tops up the operator wallet through the
// funding chain without minting anything.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/funding"
	"solana-nft-minter/internal/solana"
	"solana-nft-minter/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", solana.DevnetRPCEndpoint), "Solana RPC HTTP endpoint")
	walletPath := flag.String("wallet-path", envOr("WALLET_PATH", wallet.DefaultPath), "Operator keypair file")
	minBalanceSOL := flag.Float64("min-balance-sol", 1.0, "Target balance floor in SOL")

	flag.Parse()

	logger := log.New(os.Stdout, "[fund] ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := wallet.Load(*walletPath)
	if err != nil {
		logger.Fatalf("Failed to load wallet: %v", err)
	}

	rpc := solana.NewHTTPClient(*rpcEndpoint)

	providers := []funding.Provider{funding.NewClientProvider("devnet", rpc)}
	if helius, ok := funding.NewHeliusProvider(); ok {
		providers = append(providers, helius)
	}

	chain := funding.NewChain(rpc, funding.Options{
		Providers: providers,
		Logger:    logger,
	})

	minLamports := uint64(*minBalanceSOL * float64(domain.LamportsPerSOL))
	if err := chain.EnsureFunded(ctx, w.Address(), minLamports); err != nil {
		var exhausted *funding.ExhaustedError
		if errors.As(err, &exhausted) {
			logger.Printf("All funding providers failed (tried: %v)", exhausted.Tried)
			for _, step := range exhausted.Remediation {
				logger.Printf("  - %s", step)
			}
			os.Exit(1)
		}
		logger.Fatalf("Funding failed: %v", err)
	}

	balance, err := rpc.GetBalance(ctx, w.Address())
	if err != nil {
		logger.Fatalf("Failed to read balance: %v", err)
	}
	fmt.Printf("Wallet %s funded: %.4f SOL\n", w.Address(), float64(balance)/float64(domain.LamportsPerSOL))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
