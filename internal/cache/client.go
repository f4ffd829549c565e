package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"
)

const (
	dialTimeout = 500 * time.Millisecond

	// DefaultRequestTimeout bounds a round trip whose context has no deadline.
	DefaultRequestTimeout = 2 * time.Second
)

// Client implements KV over the cache daemon's Unix socket.
type Client struct {
	socketPath     string
	requestTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRequestTimeout sets the I/O deadline used when the caller's context
// carries none. Values <= 0 fall back to DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

func NewClient(socketPath string, opts ...ClientOption) *Client {
	c := &Client{socketPath: socketPath, requestTimeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping dials the daemon once and hangs up.
func (c *Client) Ping(ctx context.Context) error {
	return c.withConn(ctx, func(net.Conn) error { return nil })
}

func (c *Client) withConn(ctx context.Context, fn func(conn net.Conn) error) error {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.requestTimeout)
	}
	_ = conn.SetDeadline(deadline)
	return fn(conn)
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.withConn(ctx, func(conn net.Conn) error {
		if err := json.NewEncoder(conn).Encode(&req); err != nil {
			return err
		}
		return json.NewDecoder(conn).Decode(&resp)
	})
	return resp, err
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.roundTrip(ctx, Request{Op: "get", Key: key})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		if resp.Error == ErrNotFound.Error() {
			return nil, ErrNotFound
		}
		return nil, errors.New(resp.Error)
	}
	return append([]byte(nil), resp.Value...), nil
}

func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	resp, err := c.roundTrip(ctx, Request{Op: "put", Key: key, Value: value, TTLMillis: ttlMillis(ttl)})
	if err != nil {
		return err
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.roundTrip(ctx, Request{Op: "delete", Key: key})
	if err != nil {
		return err
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	return nil
}

// ttlMillis converts ttl for the wire, rounding positive values up so a
// sub-millisecond TTL does not arrive as an already expired entry.
func ttlMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return ttl.Milliseconds()
	}
	return int64((ttl + time.Millisecond - 1) / time.Millisecond)
}
