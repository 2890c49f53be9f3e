package transport

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Conn wraps one WebSocket connection with a buffered outgoing queue and a
// read/write goroutine pair, the shape the teacher's ClientConnection uses
// for its binary protocol adapted here to JSON text frames (spec.md §6
// Design Notes: "the wire format can still be JSON with a discriminator").
type Conn struct {
	ws         *websocket.Conn
	connID     string
	sendChan   chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	onMessage    func(connID string, data []byte)
	onDisconnect func(connID string)
}

// NewConn wraps ws and starts its read/write pumps. onMessage is invoked for
// every inbound text frame; onDisconnect fires exactly once when either
// pump exits.
func NewConn(ws *websocket.Conn, connID string, onMessage func(string, []byte), onDisconnect func(string)) *Conn {
	c := &Conn{
		ws:           ws,
		connID:       connID,
		sendChan:     make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		onMessage:    onMessage,
		onDisconnect: onDisconnect,
	}
	go c.writePump()
	go c.readPump()
	return c
}

// Send queues data for delivery. Non-blocking: a full buffer means a
// catastrophically slow client, and the frame is dropped rather than
// stalling the dispatcher goroutine that called us.
func (c *Conn) Send(data []byte) error {
	select {
	case c.sendChan <- data:
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed")
	default:
		return nil
	}
}

// Close shuts the connection down. Safe to call multiple times.
func (c *Conn) Close() error {
	c.cleanup()
	return nil
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.cleanup()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.sendChan:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) readPump() {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("transport: read error on %s: %v", c.connID, err)
			}
			return
		}
		c.onMessage(c.connID, message)
	}
}

// cleanup fires onDisconnect exactly once, whichever pump exits first.
func (c *Conn) cleanup() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
		c.onDisconnect(c.connID)
	})
}
