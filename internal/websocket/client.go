package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/journal-service/internal/types"
)

// keepalive timings. pingEvery must stay below pongTimeout.
const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingEvery    = pongTimeout * 9 / 10

	// subscribers never send payloads, only control frames
	inboundLimit = 512
	queueSize    = 64
)

var ErrSlowClient = errors.New("client send buffer is full")

// Client is one notification subscription. Each queued event goes out as
// its own text frame; anything the peer sends is dropped.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID types.EntityID
	hub    *Hub
}

func NewClient(conn *websocket.Conn, userID types.EntityID, hub *Hub) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, queueSize),
		userID: userID,
		hub:    hub,
	}
}

// Start runs the connection until the peer goes away or the hub drops it.
func (c *Client) Start() {
	go c.forward()
	go c.drain()
}

// drain keeps reading so control frames are processed and a closed peer is
// noticed. It unregisters the client when the connection ends.
func (c *Client) drain() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(inboundLimit)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	}
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				slog.Warn("Notification connection closed unexpectedly",
					slog.String("user_id", c.userID.String()),
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// forward writes queued events and periodic pings. A closed send channel
// means the hub replaced or dropped this client.
func (c *Client) forward() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, open := <-c.send:
			if !open {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced"))
				return
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, payload)
}

// SendEvent queues an event without blocking. The hub owns the send
// channel, so a full queue is reported rather than closed here.
func (c *Client) SendEvent(event *types.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSlowClient
	}
}

func (c *Client) UserID() types.EntityID {
	return c.userID
}
