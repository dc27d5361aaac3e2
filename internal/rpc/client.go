// Package rpc is a JSON-RPC 2.0 client for substrate nodes over
// websockets, covering the handful of methods extrinsic submission needs.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var (
	// ErrClosed is returned for calls on a closed client.
	ErrClosed = errors.New("rpc client closed")
)

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
	// Set on subscription notifications instead of ID/Result.
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Client is a websocket JSON-RPC client. It is safe for concurrent use;
// responses are correlated by request id and subscription notifications
// are routed to their subscriber.
type Client struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	limiter *rate.Limiter

	nextID  atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *response
	subs    map[string]chan json.RawMessage
	// backlog holds notifications that arrive between the subscription
	// reply and the channel registration.
	backlog map[string][]json.RawMessage
	closed  bool

	done chan struct{}
}

// Options configure a client.
type Options struct {
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// RequestsPerSecond bounds the request rate; 0 means 25/s.
	RequestsPerSecond float64
	// DialAttempts bounds connect retries; 0 means 3.
	DialAttempts uint
	// HandshakeTimeout bounds the websocket handshake; 0 means 10s.
	HandshakeTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.RequestsPerSecond == 0 {
		o.RequestsPerSecond = 25
	}
	if o.DialAttempts == 0 {
		o.DialAttempts = 3
	}
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	return o
}

// Dial connects to a node endpoint, retrying transient failures with
// backoff.
func Dial(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	opts = opts.withDefaults()

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}

	conn, err := retry.DoWithData(
		func() (*websocket.Conn, error) {
			c, _, err := dialer.DialContext(ctx, endpoint, nil)
			return c, err
		},
		retry.Context(ctx),
		retry.Attempts(opts.DialAttempts),
		retry.Delay(250*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			opts.Logger.Debug("rpc dial retry", "endpoint", endpoint, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", endpoint, err)
	}

	c := &Client{
		conn:    conn,
		logger:  opts.Logger,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		pending: make(map[uint64]chan *response),
		subs:    make(map[string]chan json.RawMessage),
		backlog: make(map[string][]json.RawMessage),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. In-flight calls fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// Call performs a single request and decodes the result into out, which
// may be nil to discard it.
func (c *Client) Call(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	id := c.nextID.Add(1)
	ch := make(chan *response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if params == nil {
		params = []any{}
	}
	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// subscribe issues a subscription request and returns the notification
// channel together with the subscription id.
func (c *Client) subscribe(ctx context.Context, method string, params ...any) (string, <-chan json.RawMessage, error) {
	var subID string
	if err := c.Call(ctx, &subID, method, params...); err != nil {
		return "", nil, err
	}

	ch := make(chan json.RawMessage, 8)
	c.mu.Lock()
	for _, raw := range c.backlog[subID] {
		ch <- raw
	}
	delete(c.backlog, subID)
	c.subs[subID] = ch
	c.mu.Unlock()
	return subID, ch, nil
}

func (c *Client) unsubscribe(ctx context.Context, method, subID string) {
	c.mu.Lock()
	delete(c.subs, subID)
	delete(c.backlog, subID)
	c.mu.Unlock()
	// Best effort; the node drops the subscription with the connection
	// anyway.
	_ = c.Call(ctx, nil, method, subID)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var resp response
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Debug("rpc connection lost", "error", err)
			}
			return
		}

		switch {
		case resp.Method != "" && resp.Params.Subscription != "":
			subID := resp.Params.Subscription
			c.mu.Lock()
			ch, ok := c.subs[subID]
			if !ok && len(c.backlog[subID]) < 8 {
				c.backlog[subID] = append(c.backlog[subID], resp.Params.Result)
			}
			c.mu.Unlock()
			if ok {
				select {
				case ch <- resp.Params.Result:
				default:
					c.logger.Debug("dropping slow subscription update", "subscription", subID)
				}
			}
		default:
			c.mu.Lock()
			ch, ok := c.pending[resp.ID]
			c.mu.Unlock()
			if ok {
				r := resp
				ch <- &r
			}
		}
	}
}
