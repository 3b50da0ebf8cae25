package wire

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/anacrolix/utp"
	"github.com/hupe1980/pieceset/resource"
)

// DefaultTimeout is the per-message read and write deadline.
const DefaultTimeout = 30 * time.Second

// Conn exchanges messages over a net.Conn with per-message deadlines.
// Reads and writes may proceed concurrently, but each direction must be
// used by one goroutine at a time.
type Conn struct {
	conn    net.Conn
	r       io.Reader
	w       io.Writer
	timeout time.Duration
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithTimeout sets the per-message deadline. Zero disables deadlines.
func WithTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		c.timeout = d
	}
}

// WithRateLimit throttles both directions through the controller's IO
// budget. ctx bounds the waits.
func WithRateLimit(ctx context.Context, rc *resource.Controller) ConnOption {
	return func(c *Conn) {
		c.r = resource.NewRateLimitedReader(ctx, c.conn, rc)
		c.w = resource.NewRateLimitedWriter(ctx, c.conn, rc)
	}
}

// NewConn wraps an established connection.
func NewConn(conn net.Conn, opts ...ConnOption) *Conn {
	c := &Conn{
		conn:    conn,
		r:       conn,
		w:       conn,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DialUTP opens a uTP connection to addr.
func DialUTP(ctx context.Context, addr string, opts ...ConnOption) (*Conn, error) {
	conn, err := utp.DialContext(ctx, addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, opts...), nil
}

// ReadMessage reads the next message. A nil message is a keep-alive.
func (c *Conn) ReadMessage() (*Message, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
		defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()
	}
	return ReadMessage(c.r)
}

// WriteMessage writes msg. A nil msg sends a keep-alive.
func (c *Conn) WriteMessage(msg *Message) error {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}
	_, err := c.w.Write(msg.Serialize())
	return err
}

// RemoteAddr returns the peer's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
