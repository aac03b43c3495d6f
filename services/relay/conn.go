// Package relay adapts gorilla websocket connections to the chat registry.
package relay

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/chat"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	sendQueueSize = 256

	// CloseTryAgainLater is sent when the registry refuses a connection that was already upgraded.
	CloseTryAgainLater = 1013
)

var (
	// errors
	ErrClosed    = errors.New("connection closed")
	ErrQueueFull = errors.New("send queue full")
)

// Conn is a websocket connection served by a read pump and a write pump.
// Sends are queued and written by the write pump only.
type Conn struct {
	ws     *websocket.Conn
	logger core.Logger

	send     chan []byte
	in       chan []byte
	done     chan struct{} // closed by Close
	readDone chan struct{} // closed when the read pump exits
	readErr  error

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ chat.Conn = (*Conn)(nil)

// NewConn starts the pumps of ws. Inbound messages larger than maxMessageSize close the connection.
func NewConn(ws *websocket.Conn, maxMessageSize int64, logger core.Logger) *Conn {
	c := &Conn{
		ws:       ws,
		logger:   logger,
		send:     make(chan []byte, sendQueueSize),
		in:       make(chan []byte),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	if maxMessageSize > 0 {
		ws.SetReadLimit(maxMessageSize)
	}
	go c.readPump()
	go c.writePump()
	return c
}

// Send queues msg without blocking.
func (c *Conn) Send(msg []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive returns the next inbound frame. Any error means the connection is unusable.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-c.in:
		return msg, nil
	case <-c.readDone:
		if c.readErr != nil {
			return nil, c.readErr
		}
		return nil, ErrClosed
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) Close() error {
	return c.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith sends a close frame carrying code and reason, then tears the connection down.
func (c *Conn) CloseWith(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		err = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(writeWait),
		)
		close(c.done)
	})
	if err == websocket.ErrCloseSent {
		err = nil
	}
	return err
}

func (c *Conn) readPump() {
	defer close(c.readDone)

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!isClosedConnError(err) {
				c.logger.Debug("relay: reading message", err)
			}
			c.readErr = err
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		select {
		case c.in <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("relay: writing message", err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("relay: writing ping", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// shutdown marks the connection closed without a close frame, when the peer is already gone.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

func isClosedConnError(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection")
}

// NewUpgrader returns an upgrader accepting the given origins ("scheme://host"). No origins, or "*", accepts any.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
			continue
		}
		if n, ok := normalizeOrigin(o); ok {
			allowed[n] = true
		}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" { // not a browser
				return true
			}
			n, ok := normalizeOrigin(origin)
			return ok && allowed[n]
		},
	}
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
