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

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// LogClient implements LogStream using gorilla/websocket. It carries exactly
// one logs subscription and transparently resubscribes after a reconnect.
type LogClient struct {
	endpoint string
	config   WSConfig

	connMu sync.Mutex
	conn   *websocket.Conn

	requestID    atomic.Uint64
	closed       atomic.Bool
	reconnecting atomic.Bool

	// Subscription state. subID changes across reconnects; the channel and
	// filter survive for the client's lifetime.
	mu       sync.Mutex
	filter   LogsFilter
	subID    int64
	notifyCh chan LogNotification
	pending  map[uint64]chan int64

	done chan struct{}
	wg   sync.WaitGroup
}

// NewLogClient connects to a Solana WebSocket endpoint.
func NewLogClient(ctx context.Context, endpoint string, config *WSConfig) (*LogClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &LogClient{
		endpoint: endpoint,
		config:   cfg,
		pending:  make(map[uint64]chan int64),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *LogClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Subscribe opens the client's single logs subscription.
func (c *LogClient) Subscribe(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	c.mu.Lock()
	if c.notifyCh != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("already subscribed")
	}
	// Buffered so a burst of notifications does not stall the read loop.
	ch := make(chan LogNotification, 1024)
	c.notifyCh = ch
	c.filter = filter
	c.mu.Unlock()

	subID, err := c.sendSubscribe(ctx, filter)
	if err != nil {
		c.mu.Lock()
		c.notifyCh = nil
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.subID = subID
	c.mu.Unlock()

	return ch, nil
}

// sendSubscribe issues a logsSubscribe request and waits for its confirmation.
func (c *LogClient) sendSubscribe(ctx context.Context, filter LogsFilter) (int64, error) {
	reqID := c.requestID.Add(1)

	var mentions interface{}
	if len(filter.Mentions) > 0 {
		mentions = map[string]interface{}{"mentions": filter.Mentions}
	} else {
		mentions = "all"
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentions,
			map[string]string{"commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	c.mu.Lock()
	c.pending[reqID] = confirmCh
	c.mu.Unlock()

	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		cleanup()
		return 0, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirmCh:
		return subID, nil
	case <-time.After(c.config.SubscribeTimeout):
		cleanup()
		return 0, fmt.Errorf("subscription confirmation timeout")
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		cleanup()
		return 0, ctx.Err()
	}
}

// Close closes the WebSocket connection.
func (c *LogClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.mu.Lock()
	if c.notifyCh != nil {
		close(c.notifyCh)
		c.notifyCh = nil
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches notifications; on connection errors
// it triggers a reconnect with exponential backoff.
func (c *LogClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// pingLoop keeps the connection alive.
func (c *LogClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// wsMessage covers both subscription confirmations and notifications.
type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *struct {
		Subscription int64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot int64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string      `json:"signature"`
				Err       interface{} `json:"err"`
				Logs      []string    `json:"logs"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (c *LogClient) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	// Subscription confirmation: {id, result: <subID>}
	if msg.ID != 0 && msg.Result != nil {
		var subID int64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			return
		}
		c.mu.Lock()
		if ch, ok := c.pending[msg.ID]; ok {
			delete(c.pending, msg.ID)
			ch <- subID
		}
		c.mu.Unlock()
		return
	}

	if msg.Method != "logsNotification" || msg.Params == nil {
		return
	}

	c.mu.Lock()
	ch := c.notifyCh
	subID := c.subID
	c.mu.Unlock()

	if ch == nil || msg.Params.Subscription != subID {
		return
	}

	n := LogNotification{
		Signature: msg.Params.Result.Value.Signature,
		Slot:      msg.Params.Result.Context.Slot,
		Logs:      msg.Params.Result.Value.Logs,
		Err:       msg.Params.Result.Value.Err,
	}

	select {
	case ch <- n:
	default:
		// Drop on backpressure; the poller remains the source of truth.
	}
}

// reconnect re-establishes the connection and the active subscription.
func (c *LogClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Next read error retries.
		return
	}

	c.mu.Lock()
	active := c.notifyCh != nil
	filter := c.filter
	c.mu.Unlock()

	if !active {
		return
	}

	subID, err := c.sendSubscribe(ctx, filter)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.subID = subID
	c.mu.Unlock()
}

// Compile-time interface check.
var _ LogStream = (*LogClient)(nil)
