package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"github.com/vovakirdan/ts5-mirror/internal/transport"
)

// readLimit bounds a single inbound frame. The auth acknowledgment carries
// the full channel tree and client list, well past the library default.
const readLimit = 8 << 20

// Dialer connects to the TS5 Remote Apps WebSocket endpoint.
type Dialer struct {
	URL string
}

// NewDialer builds a dialer for url, e.g. "ws://localhost:5899".
func NewDialer(url string) *Dialer {
	return &Dialer{URL: url}
}

// Dial opens the socket. ctx bounds the handshake only.
func (d *Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	conn, resp, err := websocket.Dial(ctx, d.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetReadLimit(readLimit)
	return &Conn{conn: conn}, nil
}

// Conn wraps a websocket connection as a transport.Conn.
type Conn struct {
	conn *websocket.Conn
}

// Wrap adapts an already established websocket connection.
func Wrap(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Conn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close performs the closing handshake with a normal status.
func (c *Conn) Close(reason string) error {
	err := c.conn.Close(websocket.StatusNormalClosure, reason)
	if err == nil || IsNormalClosure(err) {
		return nil
	}
	return err
}

// IsNormalClosure reports whether err is the peer closing cleanly.
func IsNormalClosure(err error) bool {
	if err == nil {
		return false
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
