package mint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-nft-minter/internal/solana"
	"solana-nft-minter/internal/solana/stub"
)

// stubNotifier scripts the push-based confirmation path.
type stubNotifier struct {
	ch           chan solana.SignatureResult
	subscribeErr error
	subscribed   int
}

func (n *stubNotifier) SignatureSubscribe(context.Context, string, solana.Commitment) (<-chan solana.SignatureResult, error) {
	n.subscribed++
	if n.subscribeErr != nil {
		return nil, n.subscribeErr
	}
	return n.ch, nil
}

func (n *stubNotifier) Close() error { return nil }

func builtMint(t *testing.T, client *stub.RPCClient) *BuiltMint {
	t.Helper()

	builder, err := NewBuilder(client, DefaultProgramID)
	require.NoError(t, err)

	built, err := builder.Build(context.Background(), types.NewAccount(), types.NewAccount())
	require.NoError(t, err)
	return built
}

func TestPipeline_SubmitAndConfirm_PollPath(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"
	client.SetStatus("mintsig", &solana.SignatureStatus{ConfirmationStatus: "finalized"})

	pipeline := NewPipeline(client, nil, solana.CommitmentConfirmed, time.Second)

	signature, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.NoError(t, err)
	assert.Equal(t, "mintsig", signature)
	assert.Len(t, client.SentTransactions, 1, "the transaction is submitted exactly once")
}

func TestPipeline_SubmitAndConfirm_SendRejected(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendErr = errors.New("blockhash not found")

	pipeline := NewPipeline(client, nil, solana.CommitmentConfirmed, time.Second)

	_, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.Error(t, err)

	var submission *SubmissionError
	require.ErrorAs(t, err, &submission)
	assert.Empty(t, submission.Signature, "rejection happens before a signature exists")
}

func TestPipeline_SubmitAndConfirm_Timeout(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"
	// no status scripted: the signature never confirms

	pipeline := NewPipeline(client, nil, solana.CommitmentConfirmed, time.Second)
	built := builtMint(t, client)

	signature, err := pipeline.SubmitAndConfirm(context.Background(), built)
	require.Error(t, err)
	assert.Equal(t, "mintsig", signature, "ambiguous outcomes still return the signature")

	var timeout *ConfirmationTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, built.MintAddress, timeout.MintAddress)
	assert.Equal(t, built.TokenAccount, timeout.TokenAccount)
	assert.Equal(t, "mintsig", timeout.Signature)
}

func TestPipeline_Confirm_NotifierDelivers(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"

	notifier := &stubNotifier{ch: make(chan solana.SignatureResult, 1)}
	notifier.ch <- solana.SignatureResult{Slot: 100}
	close(notifier.ch)

	pipeline := NewPipeline(client, notifier, solana.CommitmentConfirmed, time.Second)

	signature, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.NoError(t, err)
	assert.Equal(t, "mintsig", signature)
	assert.Equal(t, 1, notifier.subscribed)
}

func TestPipeline_Confirm_NotifierReportsExecutionFailure(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"

	notifier := &stubNotifier{ch: make(chan solana.SignatureResult, 1)}
	notifier.ch <- solana.SignatureResult{Slot: 100, Err: map[string]interface{}{"InstructionError": []interface{}{0}}}
	close(notifier.ch)

	pipeline := NewPipeline(client, notifier, solana.CommitmentConfirmed, time.Second)

	_, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.Error(t, err)
	assert.ErrorIs(t, err, solana.ErrTransactionFailed)
}

func TestPipeline_Confirm_AlreadyLandedAtConfirmedBeforeNotification(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"
	// the signature reached confirmed before the subscription registered, so
	// the node will never push a notification
	client.SetStatus("mintsig", &solana.SignatureStatus{ConfirmationStatus: "confirmed"})

	notifier := &stubNotifier{ch: make(chan solana.SignatureResult)}
	pipeline := NewPipeline(client, notifier, solana.CommitmentConfirmed, 5*time.Second)

	start := time.Now()
	signature, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.NoError(t, err)
	assert.Equal(t, "mintsig", signature)
	assert.Less(t, time.Since(start), time.Second,
		"a landed signature at the requested commitment must not wait out the window")
}

func TestPipeline_Confirm_SubscribeFailureFallsBackToPolling(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"
	client.SetStatus("mintsig", &solana.SignatureStatus{ConfirmationStatus: "finalized"})

	notifier := &stubNotifier{subscribeErr: errors.New("websocket client is closed")}
	pipeline := NewPipeline(client, notifier, solana.CommitmentConfirmed, time.Second)

	signature, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.NoError(t, err)
	assert.Equal(t, "mintsig", signature)
}

func TestPipeline_Confirm_DroppedStreamFallsBackToPolling(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "mintsig"
	client.SetStatus("mintsig", &solana.SignatureStatus{ConfirmationStatus: "finalized"})

	// channel closes without a value, as on connection loss
	ch := make(chan solana.SignatureResult)
	close(ch)
	notifier := &stubNotifier{ch: ch}

	pipeline := NewPipeline(client, notifier, solana.CommitmentConfirmed, time.Second)

	signature, err := pipeline.SubmitAndConfirm(context.Background(), builtMint(t, client))
	require.NoError(t, err)
	assert.Equal(t, "mintsig", signature)
}
