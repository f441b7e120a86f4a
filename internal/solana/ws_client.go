package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  90 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// WSClientImpl implements SignatureNotifier using gorilla/websocket.
// Subscriptions are one-shot: the node fires a single signatureNotification
// and removes the subscription itself.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	writeMu   sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to the waiting result channel
	subs   map[int64]chan SignatureResult
	subsMu sync.Mutex

	// pendingSubs maps request ID to channel waiting for subscription ID
	pendingSubs   map[uint64]chan int64
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		subs:        make(map[int64]chan SignatureResult),
		pendingSubs: make(map[uint64]chan int64),
		done:        make(chan struct{}),
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", endpoint, err)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// wsRequest is a JSON-RPC 2.0 request over the socket.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// wsMessage covers both subscription responses and notifications.
type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *wsNotifyParams `json:"params"`
	Error  *RPCError       `json:"error"`
}

type wsNotifyParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Err interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// SignatureSubscribe registers a one-shot signature subscription.
func (c *WSClientImpl) SignatureSubscribe(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureResult, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("websocket client is closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]interface{}{"commitment": string(commitment)},
		},
	}

	subIDCh := make(chan int64, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = subIDCh
	c.pendingSubsMu.Unlock()

	if err := c.writeJSON(req); err != nil {
		c.dropPending(reqID)
		return nil, fmt.Errorf("write subscribe request: %w", err)
	}

	select {
	case <-ctx.Done():
		c.dropPending(reqID)
		return nil, ctx.Err()
	case <-c.done:
		c.dropPending(reqID)
		return nil, fmt.Errorf("websocket connection closed")
	case subID, ok := <-subIDCh:
		if !ok {
			return nil, fmt.Errorf("subscription rejected")
		}
		resultCh := make(chan SignatureResult, 1)
		c.subsMu.Lock()
		c.subs[subID] = resultCh
		c.subsMu.Unlock()
		return resultCh, nil
	}
}

// dropPending deregisters an abandoned subscription request so its channel
// does not outlive the caller.
func (c *WSClientImpl) dropPending(reqID uint64) {
	c.pendingSubsMu.Lock()
	delete(c.pendingSubs, reqID)
	c.pendingSubsMu.Unlock()
}

// writeJSON writes a message with the configured write timeout.
func (c *WSClientImpl) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// readLoop dispatches subscription responses and notifications until the
// connection drops. On exit every waiter is released by closing its channel.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()
	defer c.releaseAll()

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch {
		case msg.Method == "signatureNotification" && msg.Params != nil:
			c.subsMu.Lock()
			ch, ok := c.subs[msg.Params.Subscription]
			if ok {
				delete(c.subs, msg.Params.Subscription)
			}
			c.subsMu.Unlock()
			if ok {
				ch <- SignatureResult{
					Slot: msg.Params.Result.Context.Slot,
					Err:  msg.Params.Result.Value.Err,
				}
				close(ch)
			}

		case msg.ID != 0:
			c.pendingSubsMu.Lock()
			ch, ok := c.pendingSubs[msg.ID]
			if ok {
				delete(c.pendingSubs, msg.ID)
			}
			c.pendingSubsMu.Unlock()
			if !ok {
				continue
			}
			if msg.Error != nil {
				close(ch)
				continue
			}
			var subID int64
			if err := json.Unmarshal(msg.Result, &subID); err != nil {
				close(ch)
				continue
			}
			ch <- subID
		}
	}
}

// pingLoop keeps the connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// releaseAll closes every pending and active subscription channel so waiters
// fall back to HTTP polling.
func (c *WSClientImpl) releaseAll() {
	c.pendingSubsMu.Lock()
	for id, ch := range c.pendingSubs {
		close(ch)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()

	c.subsMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
	err := c.conn.Close()
	c.wg.Wait()
	return err
}

// Compile-time interface check.
var _ SignatureNotifier = (*WSClientImpl)(nil)
