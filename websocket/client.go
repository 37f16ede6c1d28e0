package websocket

import (
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"civicwatch/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client bridges one hub subscription onto a websocket connection.
// The hub owns the send channel; the client only drains it.
type Client struct {
	hub  *broadcast.Hub
	id   uint64
	conn *websocket.Conn
	send <-chan []byte
}

func NewClient(hub *broadcast.Hub, id uint64, conn *websocket.Conn, send <-chan []byte) *Client {
	return &Client{
		hub:  hub,
		id:   id,
		conn: conn,
		send: send,
	}
}

// ReadPump discards client messages and unsubscribes on disconnect.
// The leaderboard feed is one-way; reads only exist to notice closure.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("Websocket read error for subscriber %d: %v", c.id, err)
			}
			break
		}
	}
}

// WritePump pumps snapshots from the hub channel to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
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
