package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-minter/internal/domain"
	"solana-nft-minter/internal/funding"
	"solana-nft-minter/internal/mint"
	"solana-nft-minter/internal/solana"
	"solana-nft-minter/internal/solana/stub"
	"solana-nft-minter/internal/wallet"
)

// failingProvider always rejects the airdrop request.
type failingProvider struct {
	name string
	err  error
}

func (p *failingProvider) Name() string { return p.name }

func (p *failingProvider) RequestAirdrop(context.Context, string, uint64) (string, error) {
	return "", p.err
}

type serverFixture struct {
	server    *Server
	client    *stub.RPCClient
	wallet    *wallet.Wallet
	uploadDir string
}

func newServerFixture(t *testing.T, providers ...funding.Provider) *serverFixture {
	t.Helper()

	w, err := wallet.Load(filepath.Join(t.TempDir(), "wallet.json"))
	require.NoError(t, err)

	client := stub.NewRPCClient()
	chain := funding.NewChain(client, funding.Options{Providers: providers})

	builder, err := mint.NewBuilder(client, mint.DefaultProgramID)
	require.NoError(t, err)
	pipeline := mint.NewPipeline(client, nil, solana.CommitmentConfirmed, time.Second)
	svc := mint.NewService(w, client, chain, builder, pipeline, mint.ServiceOptions{})

	uploadDir := t.TempDir()
	server := NewServer(svc, Options{
		UploadDir: uploadDir,
		BaseURL:   "http://localhost:3001",
	})

	return &serverFixture{server: server, client: client, wallet: w, uploadDir: uploadDir}
}

// pngBytes encodes a small valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

// mintForm builds a multipart mint request body. A nil image omits the file
// part entirely.
func mintForm(t *testing.T, fields map[string]string, imageData []byte, imageType string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	if imageData != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="test.png"`)
		header.Set("Content-Type", imageType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func doJSON(t *testing.T, handler http.Handler, req *http.Request) (int, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), "body: %s", rec.Body.String())
	return rec.Code, payload
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t)

	code, payload := doJSON(t, f.server.Handler(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, f.wallet.Address(), payload["wallet"])
}

func TestServer_Mint(t *testing.T) {
	f := newServerFixture(t)
	f.client.SetBalance(f.wallet.Address(), 2*domain.LamportsPerSOL)
	f.client.SendResult = "mintsig"
	f.client.SetStatus("mintsig", &solana.SignatureStatus{ConfirmationStatus: "finalized"})

	body, contentType := mintForm(t, map[string]string{
		"name":        "Test NFT",
		"description": "A test token",
		"attributes":  `[{"trait_type":"Color","value":"Blue"}]`,
	}, pngBytes(t), "image/png")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "NFT minted successfully!", payload["message"])

	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "mintsig", data["signature"])
	assert.NotEmpty(t, data["mintAddress"])
	assert.Equal(t, "https://explorer.solana.com/tx/mintsig?cluster=devnet", data["explorerUrl"])

	// processed image and metadata document are persisted under the upload dir
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	var haveImage, haveDoc bool
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case ".png":
			haveImage = true
		case ".json":
			haveDoc = true
		}
	}
	assert.True(t, haveImage, "processed image written")
	assert.True(t, haveDoc, "metadata document written")

	metadata := data["metadata"].(map[string]interface{})
	assert.Equal(t, "Test NFT", metadata["name"])
	assert.Equal(t, "NFT", metadata["symbol"])
}

func TestServer_Mint_NoImage(t *testing.T) {
	f := newServerFixture(t)

	body, contentType := mintForm(t, map[string]string{
		"name":        "Test NFT",
		"description": "A test token",
	}, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No image file provided", payload["error"])
}

func TestServer_Mint_MissingFields(t *testing.T) {
	f := newServerFixture(t)

	body, contentType := mintForm(t, map[string]string{
		"name": "Test NFT",
	}, pngBytes(t), "image/png")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Name and description are required", payload["error"])
}

func TestServer_Mint_UnsupportedContentType(t *testing.T) {
	f := newServerFixture(t)

	body, contentType := mintForm(t, map[string]string{
		"name":        "Test NFT",
		"description": "A test token",
	}, []byte("not an image"), "text/plain")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, payload["error"], "Unsupported content type")
}

func TestServer_Mint_InvalidAttributes(t *testing.T) {
	f := newServerFixture(t)

	body, contentType := mintForm(t, map[string]string{
		"name":        "Test NFT",
		"description": "A test token",
		"attributes":  "{not json",
	}, pngBytes(t), "image/png")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid attributes JSON", payload["error"])
}

func TestServer_Mint_FundingExhausted(t *testing.T) {
	down := &failingProvider{name: "devnet", err: errors.New("airdrop failed")}
	f := newServerFixture(t, down)

	body, contentType := mintForm(t, map[string]string{
		"name":        "Test NFT",
		"description": "A test token",
	}, pngBytes(t), "image/png")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, "Airdrop rate limit exceeded", payload["error"])
	assert.NotEmpty(t, payload["solutions"], "remediation steps surface to the caller")
	assert.Equal(t, f.wallet.Address(), payload["walletAddress"])
}

func TestServer_Mint_ConfirmationTimeout(t *testing.T) {
	f := newServerFixture(t)
	f.client.SetBalance(f.wallet.Address(), 2*domain.LamportsPerSOL)
	f.client.SendResult = "mintsig"
	// no status scripted: confirmation never arrives

	body, contentType := mintForm(t, map[string]string{
		"name":        "Test NFT",
		"description": "A test token",
	}, pngBytes(t), "image/png")

	req := httptest.NewRequest(http.MethodPost, "/mint-nft", body)
	req.Header.Set("Content-Type", contentType)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusGatewayTimeout, code)
	assert.Equal(t, "mintsig", payload["signature"])
	assert.NotEmpty(t, payload["mintAddress"], "caller can reconcile the ambiguous outcome later")
}

func TestServer_GetNFT_NotFound(t *testing.T) {
	f := newServerFixture(t)

	mintAddress := f.wallet.Address() // valid base58, nothing on the ledger
	req := httptest.NewRequest(http.MethodGet, "/nft/"+mintAddress, nil)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NFT not found", payload["error"])
}

func TestServer_GetNFT_InvalidAddress(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/nft/bogus", nil)

	code, payload := doJSON(t, f.server.Handler(), req)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid address", payload["error"])
}

func TestServer_WalletBalance(t *testing.T) {
	f := newServerFixture(t)
	f.client.SetBalance(f.wallet.Address(), 2*domain.LamportsPerSOL+domain.LamportsPerSOL/2)

	code, payload := doJSON(t, f.server.Handler(), httptest.NewRequest(http.MethodGet, "/wallet/balance", nil))
	require.Equal(t, http.StatusOK, code)

	data := payload["data"].(map[string]interface{})
	assert.InDelta(t, 2.5, data["balance"], 1e-9)
	assert.Equal(t, f.wallet.Address(), data["address"])
}

func TestServer_WalletNFTs(t *testing.T) {
	f := newServerFixture(t)
	owner := f.wallet.Address()
	f.client.TokenAccounts[owner] = []solana.ParsedTokenAccount{
		{Pubkey: "acct1", Mint: "nftmint", Owner: owner, Amount: "1", Decimals: 0},
		{Pubkey: "acct2", Mint: "fungible", Owner: owner, Amount: "500", Decimals: 9},
	}

	code, payload := doJSON(t, f.server.Handler(), httptest.NewRequest(http.MethodGet, "/wallet/nfts", nil))
	require.Equal(t, http.StatusOK, code)

	data := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}
