package solana

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsTestServer upgrades each connection and hands it to the handler.
func wsTestServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_SignatureSubscribe_Notification(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Method != "signatureSubscribe" {
			t.Errorf("expected signatureSubscribe, got %s", req.Method)
		}

		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  int64(17),
		})
		// give the subscriber time to register its result channel; a real
		// node only notifies on a later status change
		time.Sleep(100 * time.Millisecond)
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "signatureNotification",
			"params": map[string]interface{}{
				"subscription": int64(17),
				"result": map[string]interface{}{
					"context": map[string]interface{}{"slot": int64(1234)},
					"value":   map[string]interface{}{"err": nil},
				},
			},
		})

		// keep the connection open until the client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SignatureSubscribe(context.Background(), "sig1", CommitmentConfirmed)
	if err != nil {
		t.Fatalf("SignatureSubscribe: %v", err)
	}

	select {
	case result, ok := <-ch:
		if !ok {
			t.Fatal("result channel closed without a notification")
		}
		if result.Slot != 1234 {
			t.Errorf("expected slot 1234, got %d", result.Slot)
		}
		if result.Err != nil {
			t.Errorf("expected nil ledger error, got %v", result.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestWSClient_SignatureSubscribe_Rejected(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "Invalid params"},
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if _, err := client.SignatureSubscribe(context.Background(), "sig1", CommitmentConfirmed); err == nil {
		t.Fatal("expected error for rejected subscription, got nil")
	}

	client.pendingSubsMu.Lock()
	pending := len(client.pendingSubs)
	client.pendingSubsMu.Unlock()
	if pending != 0 {
		t.Errorf("expected no pending subscriptions after rejection, got %d", pending)
	}
}

func TestWSClient_SignatureSubscribe_AbandonedRequestLeavesNoPending(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		// never answer the subscribe request
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client, err := NewWSClient(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.SignatureSubscribe(ctx, "sig1", CommitmentConfirmed); err == nil {
		t.Fatal("expected context error, got nil")
	}

	client.pendingSubsMu.Lock()
	pending := len(client.pendingSubs)
	client.pendingSubsMu.Unlock()
	if pending != 0 {
		t.Errorf("expected abandoned request to be deregistered, got %d pending", pending)
	}
}
