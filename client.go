package glimmer

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Sentinel errors returned by Client operations.
var (
	// ErrNotConnected reports a send on a client whose connection was
	// never opened, was closed, or broke on a previous send.
	ErrNotConnected = errors.New("glimmer: not connected")
	// ErrInvalidChannel reports a channel outside [0,255].
	ErrInvalidChannel = errors.New("glimmer: channel out of range")
	// ErrFrameTooLarge reports a payload that overflows the 16-bit
	// length field.
	ErrFrameTooLarge = errors.New("glimmer: frame too large")
)

// Option configures a Client at construction time. Timeouts are a
// transport concern, so they live here rather than on individual sends.
type Option func(*Client)

// WithDialTimeout bounds Connect. Zero means the operating system default.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithWriteTimeout bounds each send. Zero means no deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) { c.writeTimeout = d }
}

// WithBestEffort makes send failures non-fatal: they are swallowed and
// reported only through Dropped and LastErr. Frame loss is acceptable in
// streaming use, where a retry would only add latency.
func WithBestEffort() Option {
	return func(c *Client) { c.bestEffort = true }
}

// Client owns a single stream connection to a pixel server and writes
// frames to it. Sends block only until the bytes reach the transport
// buffer; the protocol has no acknowledgement.
//
// A Client is not safe for concurrent use. The expected caller is a single
// animation loop producing frames serially; wrap sends in a mutex if more
// writers are needed.
type Client struct {
	conn         net.Conn
	dialTimeout  time.Duration
	writeTimeout time.Duration
	bestEffort   bool

	dropped uint64
	lastErr error
}

// NewClient returns an unconnected client. Call Connect before sending.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial is shorthand for NewClient followed by Connect over TCP.
func Dial(addr string, opts ...Option) (*Client, error) {
	c := NewClient(opts...)
	if err := c.Connect("tcp", addr); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens the connection to a host:port endpoint. Failures surface
// to the caller and are never retried internally; retry policy belongs to
// the caller.
func (c *Client) Connect(network, addr string) error {
	conn, err := net.DialTimeout(network, addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("glimmer: connect %s: %w", addr, err)
	}
	if old := c.conn; old != nil {
		old.Close()
	}
	c.conn = conn
	return nil
}

// Connected reports whether the client currently holds an open connection.
func (c *Client) Connected() bool { return c.conn != nil }

// SendFrame serializes the ordered pixel slice as a set-pixel-colors frame
// on the given channel and transmits it. Channel 0 broadcasts to all
// channels. An empty slice is a valid blank-channel frame. Validation
// failures perform no transmission.
func (c *Client) SendFrame(channel int, pixels []Pixel) error {
	if channel < 0 || channel > 0xff {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	f, err := FrameFromPixels(uint8(channel), pixels)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Send transmits an already-built frame. Most callers want SendFrame;
// Send exists for control messages such as CmdSystemExclusive.
func (c *Client) Send(f *Frame) error {
	buf, err := f.Bytes()
	if err != nil {
		return err
	}
	return c.write(buf)
}

func (c *Client) write(buf []byte) error {
	if c.conn == nil {
		return c.fail(ErrNotConnected)
	}
	if c.writeTimeout != 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return c.broke(err)
		}
	}
	if _, err := c.conn.Write(buf); err != nil {
		return c.broke(err)
	}
	return nil
}

// broke tears down a connection after a transport fault. Later sends fail
// fast with ErrNotConnected instead of a low-level I/O error.
func (c *Client) broke(err error) error {
	c.conn.Close()
	c.conn = nil
	return c.fail(fmt.Errorf("%w: %v", ErrNotConnected, err))
}

func (c *Client) fail(err error) error {
	if c.bestEffort {
		c.dropped++
		c.lastErr = err
		return nil
	}
	return err
}

// Dropped returns how many sends were swallowed under best-effort mode.
func (c *Client) Dropped() uint64 { return c.dropped }

// LastErr returns the most recent swallowed send error, or nil.
func (c *Client) LastErr() error { return c.lastErr }

// Close releases the connection. Closing an unconnected client is a no-op.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
