// Package transport carries the byte-frame protocol between the host and the
// engine process over a WebSocket connection.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"render-host/domain"
	"render-host/errors"
)

// Config holds the transport client settings.
type Config struct {
	// URL of the engine's message endpoint, e.g. ws://localhost:9229/messages
	URL string
	// BufferSize for the inbound frame channel. Default: 256.
	BufferSize int
	// HandshakeTimeout bounds the WebSocket upgrade. Default: 5s.
	HandshakeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	return c
}

// Client is a single WebSocket connection to the engine.
//
// Frames() delivers every decoded inbound frame; malformed frames are logged
// and skipped because payloads are opaque but the envelope is not. Writes are
// serialized with a dedicated mutex since gorilla/websocket allows only one
// concurrent writer.
type Client struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	frames chan domain.Frame
	errs   chan error
	done   chan struct{}

	writeMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	closed    bool
	dropped   bool
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		logger: logger,
		frames: make(chan domain.Frame, cfg.BufferSize),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	// A dropped connection cannot be redialed: the frames channel is
	// already closed and a second read loop would close it again.
	if c.closed || c.dropped {
		c.mu.Unlock()
		return errors.ErrNotConnected
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()

	c.logger.Info("Transport connected", "url", c.cfg.URL)
	return nil
}

func (c *Client) readLoop() {
	defer close(c.frames)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.connected = false
			c.dropped = true
			closed := c.closed
			c.mu.Unlock()

			if !closed {
				c.logger.Warn("Transport read failed", "error", err)
				select {
				case c.errs <- err:
				default:
				}
			}
			return
		}

		var frame domain.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("Discarding malformed frame", "error", err, "bytes", len(data))
			continue
		}

		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

// Send writes one frame to the engine.
func (c *Client) Send(frame domain.Frame) error {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	if !connected {
		return errors.ErrNotConnected
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Frames returns the channel of decoded inbound frames. The channel is closed
// when the connection drops or Close is called.
func (c *Client) Frames() <-chan domain.Frame { return c.frames }

// Errors returns connection-level errors.
func (c *Client) Errors() <-chan error { return c.errs }

// IsConnected returns current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close gracefully shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.connected = false
	c.mu.Unlock()

	close(c.done)
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return conn.Close()
}
