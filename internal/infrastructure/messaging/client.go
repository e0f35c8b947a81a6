package messaging

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

// Client is one websocket connection watching a payment.
type Client struct {
	PaymentID string
	Send      chan []byte
	conn      *websocket.Conn
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, paymentID string) *Client {
	return &Client{
		PaymentID: paymentID,
		Send:      make(chan []byte, sendBuffer),
		conn:      conn,
	}
}

// Serve registers the client, writes the initial message and pumps until the
// peer disconnects or the broadcaster stops. It blocks and closes the
// connection before returning.
func (c *Client) Serve(b *PaymentBroadcaster, initial []byte) {
	defer c.conn.Close()

	if len(initial) > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, initial); err != nil {
			return
		}
	}
	if !b.Register(c) {
		return
	}

	go c.writePump()
	c.readPump()
	b.Unregister(c)
}

// readPump discards incoming messages; it exists to process control frames
// and notice disconnects.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
