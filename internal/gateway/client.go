/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gateway

import (
	"sync"
	"time"

	"github.com/Seednode/impostor/internal/game"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64

	// Inbound frames allowed per second, and the burst on top of that.
	messageRate  = 10
	messageBurst = 20
)

// Client is one websocket session. It implements game.Conn: rooms hand it
// events under their own lock, so Send and Close only ever queue.
type Client struct {
	srv     *Server
	conn    *websocket.Conn
	limiter *rate.Limiter

	mu     sync.Mutex
	send   chan game.Event
	closed bool

	// Owned by the read goroutine.
	userID string
	room   *game.Room
}

func newClient(srv *Server, conn *websocket.Conn) *Client {
	return &Client{
		srv:     srv,
		conn:    conn,
		limiter: rate.NewLimiter(messageRate, messageBurst),
		send:    make(chan game.Event, sendBuffer),
	}
}

// Send queues ev. A client too slow to drain its buffer is disconnected
// rather than allowed to stall the room.
func (c *Client) Send(ev game.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- ev:
	default:
		c.srv.logf("ERROR: Send buffer full for %s, closing connection", c.conn.RemoteAddr())
		c.closeLocked()
	}
}

// Close queues a final event and ends the session once it is written.
func (c *Client) Close(ev game.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- ev:
	default:
	}
	c.closeLocked()
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closeLocked()
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Client) closeLocked() {
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		if c.room != nil {
			c.room.Disconnect(c)
		}
		c.shutdown()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil || c.isClosed() {
			return
		}

		if !c.limiter.Allow() {
			c.Send(game.ErrorEventFor(ErrRateLimited))
			continue
		}

		m, err := decode(raw)
		if err == nil {
			err = c.dispatch(m)
		}
		if err != nil {
			c.Send(game.ErrorEventFor(err))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteJSON(outbound{Event: ev.EventName(), Data: ev}); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// attach makes room the one this connection belongs to, releasing any room
// it was in before.
func (c *Client) attach(room *game.Room, userID string) {
	if c.room != nil && c.room != room {
		c.room.Disconnect(c)
	}
	c.room = room
	c.userID = userID
}

func (c *Client) dispatch(m message) error {
	switch m := m.(type) {
	case *joinMessage:
		return c.join(m)
	case *identifyMessage:
		return c.identify(m)
	}

	room, err := c.srv.registry.Room(pinOf(m))
	if err != nil {
		return err
	}

	switch m := m.(type) {
	case *startMessage:
		return room.Start(c.userID, m.Settings)
	case *targetMessage:
		return c.target(room, m)
	case *themeMessage:
		return room.Theme(m.Theme)
	case *skipMessage:
		if m.HostID != c.userID {
			return game.ErrNotHost
		}
		return room.SkipDiscussion(c.userID)
	}

	return ErrUnknownEvent
}

func (c *Client) join(m *joinMessage) error {
	room, err := c.srv.registry.Room(m.Pin)
	if err != nil {
		return err
	}

	input := &game.JoinInput{UserID: m.UserID, DisplayName: m.DisplayName}

	switch m.kind {
	case joinHost:
		err = room.HostJoin(c, m.UserID)
	case joinRejoin:
		err = room.Rejoin(c, input)
	default:
		err = room.Join(c, input)
	}
	if err != nil {
		return err
	}

	c.attach(room, m.UserID)

	return nil
}

func (c *Client) identify(m *identifyMessage) error {
	if m.Pin == "" {
		c.userID = m.UserID
		return nil
	}

	room, err := c.srv.registry.Room(m.Pin)
	if err != nil {
		return err
	}

	if err := room.Identify(c, m.UserID); err != nil {
		return err
	}

	c.attach(room, m.UserID)

	return nil
}

// target handles the variants aimed at another player. Frames from a
// connection that never identified itself are dropped.
func (c *Client) target(room *game.Room, m *targetMessage) error {
	if c.userID == "" {
		return nil
	}

	switch m.kind {
	case targetAnswer:
		return room.SubmitAnswer(c.userID, m.TargetUserID)
	case targetVote:
		return room.SubmitVote(c.userID, m.TargetUserID)
	default:
		return room.Kick(c, c.userID, m.TargetUserID)
	}
}

func pinOf(m message) string {
	switch m := m.(type) {
	case *startMessage:
		return m.Pin
	case *targetMessage:
		return m.Pin
	case *themeMessage:
		return m.Pin
	case *skipMessage:
		return m.Pin
	}
	return ""
}
