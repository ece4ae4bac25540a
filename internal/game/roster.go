/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"slices"
	"strings"
	"time"
)

// JoinInput identifies a player joining or returning to a room
type JoinInput struct {
	UserID      string
	DisplayName string
}

// Join adds a player to the lobby, or reconnects a returning id. New ids are
// refused once a game is under way.
func (r *Room) Join(c Conn, input *JoinInput) error {
	name := strings.TrimSpace(input.DisplayName)
	switch {
	case input.UserID == "":
		return ErrUserIDRequired
	case name == "":
		return ErrNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	r.touch()

	existing := r.players[input.UserID]
	if existing == nil && r.phase != PhaseLobby {
		return ErrGameInProgress
	}

	for _, id := range r.order {
		p := r.players[id]
		if p.ID == input.UserID || !strings.EqualFold(p.DisplayName, name) {
			continue
		}
		if p.connected() {
			return ErrNameTaken
		}
		return ErrNameReserved
	}

	if existing != nil {
		if r.phase == PhaseLobby {
			existing.DisplayName = name
		}
		r.reconnect(existing, c)
		r.env.Logf("ROOMS: Player %q rejoined %s", existing.DisplayName, r.pin)
	} else {
		if r.env.MaxPlayers > 0 && r.connectedCount() >= r.env.MaxPlayers {
			return ErrRoomFull
		}

		r.players[input.UserID] = &Player{
			ID:          input.UserID,
			DisplayName: name,
			Status:      StatusConnected,
			conn:        c,
		}
		r.order = append(r.order, input.UserID)
		r.scores[input.UserID] = 0
		r.env.Logf("ROOMS: Player %q joined %s", name, r.pin)
	}

	r.subscribe(c)
	r.broadcastRoster()
	c.Send(RoomJoined{RoomID: r.id, Pin: r.pin})
	r.resendPrompt(input.UserID)

	return nil
}

// Rejoin restores a disconnected player on a new connection, provided the
// grace period has not run out.
func (r *Room) Rejoin(c Conn, input *JoinInput) error {
	if input.UserID == "" {
		return ErrUserIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	r.touch()

	p := r.players[input.UserID]
	if p == nil {
		return ErrGracePeriodExpired
	}

	if !p.connected() && r.env.Clock.Now().Sub(p.DisconnectedAt) > r.env.GracePeriod {
		r.removePlayer(p.ID)
		r.broadcastRoster()
		r.checkCompletion()
		return ErrGracePeriodExpired
	}

	r.reconnect(p, c)
	r.subscribe(c)
	r.broadcastRoster()
	c.Send(RoomJoined{RoomID: r.id, Pin: r.pin})
	r.resendPrompt(p.ID)

	r.env.Logf("ROOMS: Player %q reconnected to %s", p.DisplayName, r.pin)

	return nil
}

// HostJoin attaches the host's connection to the room's broadcasts. The host
// has no roster entry.
func (r *Room) HostJoin(c Conn, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if userID != r.hostID {
		return ErrNotHost
	}
	r.touch()

	r.setHost(c)

	c.Send(RoomJoined{RoomID: r.id, Pin: r.pin})
	c.Send(r.roomUpdate())

	return nil
}

// Identify points userID at a new connection without the checks of a full
// join, and re-sends the player's prompt if a round is collecting answers.
func (r *Room) Identify(c Conn, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}

	if userID == r.hostID {
		r.setHost(c)
		c.Send(r.roomUpdate())
		return nil
	}

	p := r.players[userID]
	if p == nil {
		return ErrNotInRoom
	}
	r.touch()

	wasConnected := p.connected()
	r.reconnect(p, c)
	r.subscribe(c)

	if wasConnected {
		c.Send(r.roomUpdate())
	} else {
		r.broadcastRoster()
	}
	r.resendPrompt(p.ID)

	return nil
}

// Disconnect handles the loss of a transport session. A player whose current
// connection dropped keeps every submission and starts a grace period; the
// room does not wait any less for them in the meantime.
func (r *Room) Disconnect(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subscribers, c)
	if r.hostConn == c {
		r.hostConn = nil
	}

	if r.closed {
		return
	}

	for _, id := range r.order {
		p := r.players[id]
		if p.conn != c || !p.connected() {
			continue
		}

		p.Status = StatusDisconnected
		p.DisconnectedAt = r.env.Clock.Now()
		p.conn = nil
		p.disconnects++
		r.scheduleEviction(p)

		r.env.Logf("ROOMS: Player %q disconnected from %s", p.DisplayName, r.pin)
		r.broadcastRoster()
	}
}

// Kick removes a player immediately. Only the host may kick.
func (r *Room) Kick(requester Conn, requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if requesterID != r.hostID {
		return ErrNotHost
	}

	p := r.players[targetID]
	if p == nil {
		return ErrUnknownPlayer
	}
	r.touch()

	conn := p.conn
	r.removePlayer(targetID)

	if conn != nil {
		delete(r.subscribers, conn)
		conn.Close(PlayerKicked{Message: "You have been removed by the host."})
	}

	r.env.Logf("ROOMS: Player %q was kicked from %s", p.DisplayName, r.pin)

	r.broadcastRoster()
	if _, ok := r.subscribers[requester]; requester != nil && !ok {
		requester.Send(r.roomUpdate())
	}

	r.checkCompletion()

	return nil
}

func (r *Room) setHost(c Conn) {
	if r.hostConn != nil && r.hostConn != c {
		delete(r.subscribers, r.hostConn)
	}
	r.hostConn = c
	r.subscribe(c)
}

// reconnect moves p onto c. A superseded connection stops receiving room
// broadcasts.
func (r *Room) reconnect(p *Player, c Conn) {
	if p.conn != nil && p.conn != c {
		delete(r.subscribers, p.conn)
	}
	p.eviction.cancel()
	p.Status = StatusConnected
	p.DisconnectedAt = time.Time{}
	p.conn = c
}

func (r *Room) scheduleEviction(p *Player) {
	id, seq := p.ID, p.disconnects

	p.eviction.set(r.env.Scheduler.AfterFunc(r.env.GracePeriod, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		q := r.players[id]
		if r.closed || q != p || q.connected() || q.disconnects != seq {
			return
		}

		r.env.Logf("ROOMS: Grace period expired for %q in %s", q.DisplayName, r.pin)

		r.removePlayer(id)
		r.broadcastRoster()
		r.checkCompletion()
	}))
}

// removePlayer deletes the roster and score entries and any submission the
// player made in the current round.
func (r *Room) removePlayer(id string) {
	p, ok := r.players[id]
	if !ok {
		return
	}

	p.eviction.cancel()
	delete(r.players, id)
	delete(r.scores, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })

	if r.current != nil {
		r.current.answers.remove(id)
		r.current.votes.remove(id)
	}
}
