// Package httpapi exposes the mint service over HTTP: a multipart mint
// endpoint plus read endpoints for mint details, wallet holdings, and
// balance. Processed images and their metadata documents are served as
// static files.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/funding"
	"solana-nft-minter/internal/mint"
	"solana-nft-minter/internal/observability"
)

// MaxUploadBytes bounds the multipart request body.
const MaxUploadBytes = 10 << 20 // 10MB

// Server serves the mint HTTP API.
type Server struct {
	svc       *mint.Service
	metrics   *observability.Metrics
	logger    *log.Logger
	uploadDir string
	baseURL   string
	router    chi.Router
}

// Options configures the HTTP server.
type Options struct {
	// UploadDir holds processed images and metadata documents.
	UploadDir string

	// BaseURL is the externally reachable prefix for served files, e.g.
	// "http://localhost:3001". Metadata URIs are built from it.
	BaseURL string

	// Metrics receives per-request observations. Optional.
	Metrics *observability.Metrics

	// Logger for request-level progress. Optional.
	Logger *log.Logger
}

// NewServer wires the router.
func NewServer(svc *mint.Service, opts Options) *Server {
	s := &Server{
		svc:       svc,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		uploadDir: opts.UploadDir,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
	}
	if s.uploadDir == "" {
		s.uploadDir = "uploads"
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/mint-nft", s.handleMint)
	r.Get("/nft/{mintAddress}", s.handleGetNFT)
	r.Get("/wallet/nfts", s.handleWalletNFTs)
	r.Get("/wallet/balance", s.handleWalletBalance)

	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// observe records request metrics against the chi route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.RecordHTTP(route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "NFT Minting API is running!",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /mint-nft":         "Mint a new NFT with image",
			"GET /nft/{mintAddress}": "Get NFT details",
			"GET /wallet/nfts":       "List wallet NFTs",
			"GET /wallet/balance":    "Get wallet balance",
			"GET /health":            "Health check",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"wallet":    s.svc.WalletAddress(),
	})
}

// handleMint accepts a multipart form with an image plus name, description,
// and optional attributes, then runs the full mint flow. The processed image
// and its metadata document are persisted before minting so the metadata URI
// embedded in the response resolves immediately.
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("File too large. Maximum size is 10MB.", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No image file provided", err))
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("Unsupported content type %s", ct), nil))
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	if name == "" || description == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Name and description are required", nil))
		return
	}

	var attributes []Attribute
	if raw := r.FormValue("attributes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &attributes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid attributes JSON", err))
			return
		}
	}

	s.logger.Printf("mint request: name=%q description=%q", name, description)

	imageName, err := processImage(s.uploadDir, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Failed to process image", err))
		return
	}
	imageURL := s.baseURL + "/uploads/" + imageName

	metadata := newTokenMetadata(imageURL, name, description, attributes)
	metadataURI, err := s.writeMetadata(imageName, metadata)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to store metadata", err))
		return
	}

	result, err := s.svc.Mint(r.Context(), metadataURI)
	if err != nil {
		s.writeMintError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "NFT minted successfully!",
		"data": map[string]interface{}{
			"mintAddress":            result.MintAddress,
			"signature":              result.Signature,
			"associatedTokenAccount": result.TokenAccount,
			"metadata":               metadata,
			"metadataUri":            metadataURI,
			"imageUrl":               imageURL,
			"explorerUrl":            fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=devnet", result.Signature),
		},
	})
}

func (s *Server) handleGetNFT(w http.ResponseWriter, r *http.Request) {
	mintAddress := chi.URLParam(r, "mintAddress")

	details, err := s.svc.GetDetails(r.Context(), mintAddress)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"mintAddress":  details.MintAddress,
			"supply":       details.Supply,
			"decimals":     details.Decimals,
			"tokenAccount": details.TokenAccount,
			"amount":       details.Amount,
			"owner":        details.Owner,
		},
	})
}

func (s *Server) handleWalletNFTs(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.svc.ListOwned(r.Context())
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"nfts":  tokens,
			"count": len(tokens),
		},
	})
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	lamports, err := s.svc.Balance(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody("Failed to fetch wallet balance", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"balance": float64(lamports) / float64(domain.LamportsPerSOL),
			"address": s.svc.WalletAddress(),
		},
	})
}

// writeMintError maps mint flow failures to the documented response shapes.
func (s *Server) writeMintError(w http.ResponseWriter, err error) {
	s.logger.Printf("mint failed: %v", err)

	var exhausted *funding.ExhaustedError
	if errors.As(err, &exhausted) {
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"success":       false,
			"error":         "Airdrop rate limit exceeded",
			"details":       exhausted.Error(),
			"solutions":     exhausted.Remediation,
			"walletAddress": exhausted.Wallet,
		})
		return
	}

	var unconfirmed *funding.UnconfirmedError
	if errors.As(err, &unconfirmed) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success":   false,
			"error":     "Funding transaction did not confirm",
			"details":   unconfirmed.Error(),
			"signature": unconfirmed.Signature,
		})
		return
	}

	var timeout *mint.ConfirmationTimeoutError
	if errors.As(err, &timeout) {
		// Outcome unknown: the mint may still land. Surface the identifiers
		// so the caller can check later instead of retrying blindly.
		writeJSON(w, http.StatusGatewayTimeout, map[string]interface{}{
			"success":     false,
			"error":       "Mint submitted but not confirmed; outcome unknown",
			"mintAddress": timeout.MintAddress,
			"signature":   timeout.Signature,
			"explorerUrl": fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=devnet", timeout.Signature),
		})
		return
	}

	var buildErr *mint.BuildError
	if errors.As(err, &buildErr) {
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to build mint transaction", err))
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorBody("Failed to mint NFT", err))
}

// writeQueryError maps read-path failures.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, mint.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("NFT not found", err))
		return
	}

	var buildErr *mint.BuildError
	if errors.As(err, &buildErr) {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid address", err))
		return
	}

	s.logger.Printf("query failed: %v", err)
	writeJSON(w, http.StatusBadGateway, errorBody("Failed to fetch NFT details", err))
}

// writeMetadata persists the metadata document beside its image and returns
// the URI it will be served under.
func (s *Server) writeMetadata(imageName string, metadata TokenMetadata) (string, error) {
	docName := strings.TrimSuffix(imageName, filepath.Ext(imageName)) + ".json"

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.uploadDir, docName), data, 0o644); err != nil {
		return "", fmt.Errorf("write metadata document: %w", err)
	}

	return s.baseURL + "/uploads/" + docName, nil
}

func errorBody(message string, err error) map[string]interface{} {
	body := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err != nil {
		body["details"] = err.Error()
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
