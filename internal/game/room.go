/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"sync"
	"time"

	"github.com/Seednode/impostor/internal/questions"
)

// Room is one game instance. Every exported method takes mu, and every
// scheduled callback takes it before touching state, so a room's transitions
// are totally ordered.
type Room struct {
	mu sync.Mutex

	id     string
	pin    string
	hostID string
	env    *Config

	hostConn    Conn
	subscribers map[Conn]struct{}

	settings Settings
	players  map[string]*Player
	order    []string // join order; ties in the leaderboard keep it
	scores   map[string]int
	used     questions.Used

	phase   Phase
	round   int
	current *roundData

	phaseTimer task
	countdown  countdown
	// epoch changes on every phase transition so a timeout that already
	// fired while a transition held the lock becomes a no-op.
	epoch uint64

	createdAt  time.Time
	lastActive time.Time
	endedAt    time.Time
	closed     bool
}

func newRoom(env *Config, id, pin, hostID string) *Room {
	now := env.Clock.Now()

	return &Room{
		id:          id,
		pin:         pin,
		hostID:      hostID,
		env:         env,
		subscribers: make(map[Conn]struct{}),
		settings:    env.DefaultSettings,
		players:     make(map[string]*Player),
		scores:      make(map[string]int),
		used:        make(questions.Used),
		phase:       PhaseLobby,
		countdown:   countdown{sched: env.Scheduler},
		createdAt:   now,
		lastActive:  now,
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) Pin() string {
	return r.pin
}

func (r *Room) HostID() string {
	return r.hostID
}

// Summary is the public view served by room lookup.
type Summary struct {
	ID       string       `json:"id"`
	Pin      string       `json:"pin"`
	Players  []PlayerView `json:"players"`
	Phase    Phase        `json:"phase"`
	Settings Settings     `json:"settings"`
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Summary{
		ID:       r.id,
		Pin:      r.pin,
		Players:  r.rosterView(),
		Phase:    r.phase,
		Settings: r.settings,
	}
}

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.phase
}

// Round returns the current round number, 0 before the first round.
func (r *Room) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.round
}

// Scores returns the leaderboard in join order.
func (r *Room) Scores() []ScoreEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.scoreList()
}

// Player returns a copy of a roster entry.
func (r *Room) Player(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return Player{
		ID:             p.ID,
		DisplayName:    p.DisplayName,
		Status:         p.Status,
		DisconnectedAt: p.DisconnectedAt,
	}, true
}

// Theme relays a cosmetic theme choice to everyone in the room.
func (r *Room) Theme(theme any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}

	r.touch()
	r.broadcast(ThemeUpdate{Theme: theme})

	return nil
}

func (r *Room) touch() {
	r.lastActive = r.env.Clock.Now()
}

// idle reports whether the room should be reaped: nothing has happened since
// cutoff, or the game ended before it.
func (r *Room) idle(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseEnded && r.endedAt.Before(cutoff) {
		return true
	}
	return r.lastActive.Before(cutoff)
}

// close cancels every pending callback and ends every session.
func (r *Room) close(reason Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	r.phaseTimer.cancel()
	r.countdown.stop()
	r.epoch++

	for _, p := range r.players {
		p.eviction.cancel()
	}

	for c := range r.subscribers {
		c.Close(reason)
	}
	clear(r.subscribers)
	r.hostConn = nil
}

func (r *Room) subscribe(c Conn) {
	if c != nil {
		r.subscribers[c] = struct{}{}
	}
}

func (r *Room) broadcast(ev Event) {
	for c := range r.subscribers {
		c.Send(ev)
	}
}

func (r *Room) rosterView() []PlayerView {
	out := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id].view())
	}
	return out
}

func (r *Room) roomUpdate() RoomUpdate {
	return RoomUpdate{Players: r.rosterView(), Phase: r.phase}
}

func (r *Room) broadcastRoster() {
	r.broadcast(r.roomUpdate())
}

func (r *Room) scoreList() []ScoreEntry {
	out := make([]ScoreEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, ScoreEntry{
			UserID:      id,
			DisplayName: r.players[id].DisplayName,
			Score:       r.scores[id],
		})
	}
	return out
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected() {
			n++
		}
	}
	return n
}

func (r *Room) displayName(id string) string {
	if p, ok := r.players[id]; ok {
		return p.DisplayName
	}
	return "Unknown"
}
