// Package main is a CLI that mints one token from the command line and
// prints the result, useful for smoke-testing a deployed program without
// the HTTP surface.
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
	"solana-nft-minter/internal/mint"
	"solana-nft-minter/internal/solana"
	"solana-nft-minter/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	rpcEndpoint := flag.String("rpc-endpoint", envOr("SOLANA_RPC_ENDPOINT", solana.DevnetRPCEndpoint), "Solana RPC HTTP endpoint")
	programID := flag.String("program-id", envOr("ANCHOR_PROGRAM_ID", mint.DefaultProgramID), "Deployed mint program ID")
	walletPath := flag.String("wallet-path", envOr("WALLET_PATH", wallet.DefaultPath), "Operator keypair file")
	metadataURI := flag.String("metadata-uri", "", "Off-chain metadata URI to attach to the mint")

	flag.Parse()

	logger := log.New(os.Stdout, "[mint] ", log.LstdFlags)

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

	builder, err := mint.NewBuilder(rpc, *programID)
	if err != nil {
		logger.Fatalf("Failed to create builder: %v", err)
	}
	pipeline := mint.NewPipeline(rpc, nil, solana.CommitmentConfirmed, mint.DefaultConfirmTimeout)

	svc := mint.NewService(w, rpc, chain, builder, pipeline, mint.ServiceOptions{
		Logger: logger,
	})

	result, err := svc.Mint(ctx, *metadataURI)
	if err != nil {
		var timeout *mint.ConfirmationTimeoutError
		if errors.As(err, &timeout) {
			logger.Printf("Mint submitted but unconfirmed, outcome unknown")
			logger.Printf("  mint:      %s", timeout.MintAddress)
			logger.Printf("  signature: %s", timeout.Signature)
			os.Exit(1)
		}
		logger.Fatalf("Mint failed: %v", err)
	}

	fmt.Println("NFT minted successfully!")
	fmt.Printf("  mint:          %s\n", result.MintAddress)
	fmt.Printf("  token account: %s\n", result.TokenAccount)
	fmt.Printf("  signature:     %s\n", result.Signature)
	fmt.Printf("  explorer:      https://explorer.solana.com/tx/%s?cluster=devnet\n", result.Signature)

	if balance, err := rpc.GetBalance(ctx, w.Address()); err == nil {
		fmt.Printf("  balance:       %.4f SOL\n", float64(balance)/float64(domain.LamportsPerSOL))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
