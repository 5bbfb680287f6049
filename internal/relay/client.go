package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ayusman/gestos/internal/logging"
	"github.com/ayusman/gestos/internal/metrics"
)

// DefaultRetryInterval is the wait between connection attempts.
const DefaultRetryInterval = 3 * time.Second

// ErrNotConnected is returned by Send while the client has no connection.
var ErrNotConnected = errors.New("relay: not connected")

// ClientConfig configures a Client.
type ClientConfig struct {
	Addr  string
	Name  string // message source; generated when empty
	Retry time.Duration
	// Buffer is the capacity of the Messages channel.
	Buffer  int
	Metrics *metrics.Metrics
}

// Client is a relay peer that reconnects until its context ends.
// Received lines are decoded and delivered, in order, on Messages.
type Client struct {
	addr    string
	name    string
	retry   time.Duration
	metrics *metrics.Metrics
	log     *log.Logger
	msgs    chan Envelope

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates a client. Call Run to connect.
func NewClient(config ClientConfig) *Client {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.Name == "" {
		config.Name = "gestos-" + uuid.NewString()[:8]
	}
	if config.Retry <= 0 {
		config.Retry = DefaultRetryInterval
	}
	if config.Buffer <= 0 {
		config.Buffer = 64
	}
	return &Client{
		addr:    config.Addr,
		name:    config.Name,
		retry:   config.Retry,
		metrics: config.Metrics,
		log:     logging.WithPrefix("relay").With("client", config.Name),
		msgs:    make(chan Envelope, config.Buffer),
	}
}

// Name returns the source name used on outgoing messages.
func (c *Client) Name() string {
	return c.name
}

// Messages returns the channel of received messages. It is closed when Run returns.
func (c *Client) Messages() <-chan Envelope {
	return c.msgs
}

// Connected reports whether the client currently holds a connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run connects, reads and reconnects until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.msgs)

	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Debug("connect failed, retrying", "addr", c.addr, "retry", c.retry, "err", err)
			if !sleep(ctx, c.retry) {
				return nil
			}
			continue
		}

		c.setConn(conn)
		c.log.Info("connected", "addr", c.addr)
		c.read(ctx, conn)
		c.clearConn(conn)
		c.log.Info("disconnected", "addr", c.addr)

		if ctx.Err() != nil {
			return nil
		}
		if !sleep(ctx, c.retry) {
			return nil
		}
	}
}

func (c *Client) read(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		env, err := Decode(line)
		if err != nil {
			c.log.Warn("skipping message", "err", err)
			if c.metrics != nil {
				c.metrics.RelayErrors.Add(1)
			}
			continue
		}
		select {
		case c.msgs <- env:
		case <-ctx.Done():
			return
		}
	}
}

// Send writes a {"source","type","data"} message. Delivery is at most once.
func (c *Client) Send(typ string, data map[string]any) error {
	line, err := EncodeMessage(c.name, typ, data)
	if err != nil {
		return err
	}
	return c.write(line)
}

// SendEvent writes an {"event","data","timestamp"} message.
func (c *Client) SendEvent(name string, data map[string]any, at time.Time) error {
	line, err := EncodeEvent(name, data, at)
	if err != nil {
		return err
	}
	return c.write(line)
}

func (c *Client) write(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if _, err := c.conn.Write(line); err != nil {
		c.conn.Close()
		c.conn = nil
		c.setMetric(false)
		if c.metrics != nil {
			c.metrics.RelayErrors.Add(1)
		}
		return fmt.Errorf("relay send: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RelayMessages.Add(1)
	}
	return nil
}

func (c *Client) setConn(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.setMetric(true)
}

func (c *Client) clearConn(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn.Close()
	if c.conn == conn {
		c.conn = nil
	}
	c.setMetric(false)
}

func (c *Client) setMetric(up bool) {
	if c.metrics != nil {
		c.metrics.SetRelayConnected(up)
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
