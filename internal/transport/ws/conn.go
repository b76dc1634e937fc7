package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// Conn is one established websocket connection carrying text frames.
type Conn struct {
	conn *websocket.Conn
}

// Dialer opens websocket connections.
type Dialer struct {
	// Timeout bounds the opening handshake. Zero means no extra bound beyond ctx.
	Timeout    time.Duration
	HTTPClient *http.Client
	ReadLimit  int64
}

// Dial opens a connection to url.
func (d Dialer) Dial(ctx context.Context, url string) (*Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: d.HTTPClient})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	} else {
		// Images travel inline as data URLs.
		conn.SetReadLimit(-1)
	}
	return &Conn{conn: conn}, nil
}

// Read blocks until the next frame arrives.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

// Write sends one text frame.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close performs a normal closing handshake.
func (c *Conn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// IsNormalClose reports whether err marks an orderly shutdown rather than a failure.
func IsNormalClose(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
