package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Outgoing messages buffered per client before it is dropped as too slow
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dials come from CLI tools, not browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	addr string

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, addr string) *client {
	return &client{
		hub:    hub,
		conn:   conn,
		addr:   addr,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// enqueue queues data without blocking. A client whose buffer is full is
// disconnected.
func (c *client) enqueue(data []byte) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		logging.Warn("Client too slow, disconnecting", zap.String("remote_addr", c.addr))
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *client) reply(msg *protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logging.Error("Failed to encode reply", zap.String("remote_addr", c.addr), zap.Error(err))
		return
	}
	c.enqueue(data)
}

// readPump handles incoming messages until the connection fails.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(protocol.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading frame",
					zap.String("remote_addr", c.addr),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(c.addr, "received", msgType, data)

		msg, err := protocol.Decode(data)
		if err != nil {
			logging.Warn("Rejecting malformed message",
				zap.String("remote_addr", c.addr),
				zap.Error(err),
			)
			c.reply(protocol.NewError(requestID(data), "", err.Error()))
			continue
		}
		c.handle(msg)
	}
}

func (c *client) handle(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeSubscribe:
		if err := c.hub.Subscribe(msg.Device, c); err != nil {
			c.reply(protocol.NewError(msg.ID, msg.Device, err.Error()))
			return
		}
		value, _ := c.hub.Get(msg.Device)
		c.reply(protocol.NewState(msg.Device, value))

	case protocol.TypeCommand:
		if err := c.hub.Set(msg.Device, *msg.Value); err != nil {
			c.reply(protocol.NewError(msg.ID, msg.Device, err.Error()))
			return
		}
		c.reply(protocol.NewAck(msg))

	default:
		c.reply(protocol.NewError(msg.ID, msg.Device, "unexpected message type "+string(msg.Type)))
	}
}

// writePump owns all writes to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// Unblocks readPump.
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
			logging.LogWebSocketMessage(c.addr, "sent", websocket.TextMessage, data)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// requestID digs the id out of a message that failed validation so the
// error reply can still be matched.
func requestID(data []byte) string {
	var partial struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &partial); err != nil || partial.ID == "" {
		return "unknown"
	}
	return partial.ID
}
