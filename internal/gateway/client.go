package gateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxClientFrame = 1024
)

// Client is one WebSocket peer following one user's orders.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	userID string
}

// clientFrame is what a client may send:
//
//	{"type":"ping","ping":<client ms>}
//	{"type":"resume","last_seq":<n>}
//
// A bare {"ping":n} is treated as a ping.
type clientFrame struct {
	Type    string `json:"type"`
	Ping    int64  `json:"ping"`
	LastSeq *int64 `json:"last_seq"`
}

type pongFrame struct {
	Type     string `json:"type"`
	Ping     int64  `json:"ping"`
	ServerTS int64  `json:"server_ts"`
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		c.hub.log.WithField("user_id", c.userID).Info("ws client disconnected")
	}()

	c.conn.SetReadLimit(maxClientFrame)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if json.Unmarshal(msg, &frame) != nil {
			continue
		}
		switch {
		case frame.Type == "resume" && frame.LastSeq != nil:
			c.hub.Resume(c, *frame.LastSeq)
		case frame.Ping > 0 && (frame.Type == "" || frame.Type == "ping"):
			c.pong(frame.Ping)
		}
	}
}

func (c *Client) pong(clientMs int64) {
	buf, err := json.Marshal(pongFrame{Type: "pong", Ping: clientMs, ServerTS: time.Now().UnixMilli()})
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c] {
		select {
		case c.send <- buf:
		default:
		}
	}
}
