package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketDialer is the production transport: a single logical websocket
// connection carrying JSON text frames.
type WebsocketDialer struct {
	URL     string
	Header  map[string][]string
	Timeout time.Duration
}

// NewWebsocketDialer creates a dialer for the given wss:// endpoint.
func NewWebsocketDialer(url string) *WebsocketDialer {
	return &WebsocketDialer{URL: url}
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.Timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: %w (status %d)", d.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing %s: %w", d.URL, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, payload []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	}
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return payload, nil
}

func (c *wsConn) Close() error {
	// Best effort close handshake before dropping the TCP connection.
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
