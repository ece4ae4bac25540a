/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/impostor/internal/archive"
	"github.com/Seednode/impostor/internal/common/clock"
	"github.com/Seednode/impostor/internal/common/random"
	"github.com/Seednode/impostor/internal/common/uuid"
	"github.com/Seednode/impostor/internal/questions"
)

const (
	DefaultMinPlayers     = 3
	DefaultGracePeriod    = 60 * time.Second
	DefaultResultsDelay   = 5 * time.Second
	DefaultGroupPoints    = 1
	DefaultImpostorPoints = 3

	maxPinAttempts = 32
)

// DefaultSettings are used when a room is created without overrides.
var DefaultSettings = Settings{
	Rounds:             5,
	AnswerTimerSec:     30,
	DiscussionTimerSec: 120,
	VoteTimerSec:       15,
}

// Config holds everything a room needs from its surroundings. Zero values
// are replaced with defaults by NewRegistry.
type Config struct {
	MinPlayers int
	// MaxPlayers caps connected players per room; 0 disables the cap.
	MaxPlayers int

	DefaultSettings Settings

	GracePeriod  time.Duration
	ResultsDelay time.Duration
	// SessionTimeout is how long a room may sit idle, or ended, before the
	// reaper removes it; 0 disables reaping.
	SessionTimeout time.Duration

	GroupPoints    int
	ImpostorPoints int

	Catalog *questions.Catalog
	Archive archive.Repository

	Scheduler Scheduler
	Clock     clock.Clock
	UUID      uuid.UUID
	Random    random.Source
	Logf      func(format string, args ...any)
}

func (c *Config) setDefaults() {
	if c.MinPlayers == 0 {
		c.MinPlayers = DefaultMinPlayers
	}
	if c.DefaultSettings == (Settings{}) {
		c.DefaultSettings = DefaultSettings
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.ResultsDelay == 0 {
		c.ResultsDelay = DefaultResultsDelay
	}
	if c.GroupPoints == 0 {
		c.GroupPoints = DefaultGroupPoints
	}
	if c.ImpostorPoints == 0 {
		c.ImpostorPoints = DefaultImpostorPoints
	}
	if c.Scheduler == nil {
		c.Scheduler = realScheduler{}
	}
	if c.Clock == nil {
		c.Clock = &clock.DefaultClock{}
	}
	if c.UUID == nil {
		c.UUID = uuid.New()
	}
	if c.Random == nil {
		c.Random = random.Crypto()
	}
	if c.Logf == nil {
		c.Logf = func(string, ...any) {}
	}
}

func (c *Config) validate() error {
	switch {
	case c.Catalog == nil:
		return ErrNilCatalog
	case c.MinPlayers < DefaultMinPlayers:
		return ErrMinPlayers
	case c.MaxPlayers != 0 && c.MaxPlayers < c.MinPlayers:
		return ErrMaxPlayers
	case c.GracePeriod < 0, c.ResultsDelay < 0, c.SessionTimeout < 0,
		c.GroupPoints < 0, c.ImpostorPoints < 0:
		return ErrInvalidTimers
	case !c.DefaultSettings.valid():
		return ErrInvalidSettings
	}

	return nil
}

// Registry owns every live room, keyed by PIN.
type Registry struct {
	mu    sync.Mutex
	cfg   Config
	rooms map[string]*Room

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRegistry validates cfg and returns an empty registry. Call Start to run
// the idle reaper.
func NewRegistry(cfg *Config) (*Registry, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	c := *cfg
	c.setDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &Registry{
		cfg:   c,
		rooms: make(map[string]*Room),
		stop:  make(chan struct{}),
	}, nil
}

// CreateRoomInput contains parameters for creating a room
type CreateRoomInput struct {
	HostID      string
	DisplayName string
}

// CreateRoomOutput identifies the created room
type CreateRoomOutput struct {
	RoomID string `json:"roomId"`
	Pin    string `json:"pin"`
}

// CreateRoom registers an empty lobby owned by the host. The host does not
// join the roster.
func (reg *Registry) CreateRoom(input *CreateRoomInput) (*CreateRoomOutput, error) {
	if input == nil || strings.TrimSpace(input.HostID) == "" || strings.TrimSpace(input.DisplayName) == "" {
		return nil, ErrMissingHost
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	pin, err := reg.newPin()
	if err != nil {
		return nil, err
	}

	room := newRoom(&reg.cfg, reg.cfg.UUID.NewUUID(), pin, input.HostID)
	reg.rooms[pin] = room

	reg.cfg.Logf("ROOMS: Created %s for host %q", pin, strings.TrimSpace(input.DisplayName))

	return &CreateRoomOutput{RoomID: room.id, Pin: pin}, nil
}

// newPin draws six-digit PINs until one is free. Callers hold reg.mu.
func (reg *Registry) newPin() (string, error) {
	for range maxPinAttempts {
		pin := fmt.Sprintf("%06d", reg.cfg.Random.IntN(900000)+100000)

		if _, exists := reg.rooms[pin]; !exists {
			return pin, nil
		}
	}

	return "", ErrPinUnavailable
}

// Room returns the live room with the given PIN.
func (reg *Registry) Room(pin string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[pin]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room, nil
}

// Lookup returns the public summary of a room.
func (reg *Registry) Lookup(pin string) (Summary, error) {
	room, err := reg.Room(pin)
	if err != nil {
		return Summary{}, err
	}

	return room.Summary(), nil
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}

// Start launches the reaper if a session timeout is configured.
func (reg *Registry) Start() {
	if reg.cfg.SessionTimeout <= 0 {
		return
	}

	reg.wg.Add(1)
	go reg.reaperLoop()
}

// reaperLoop periodically removes rooms that have been idle longer than the
// session timeout.
func (reg *Registry) reaperLoop() {
	defer reg.wg.Done()

	ticker := time.NewTicker(reg.cfg.SessionTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-reg.stop:
			return
		case <-ticker.C:
			reg.reap(reg.cfg.Clock.Now())
		}
	}
}

func (reg *Registry) reap(now time.Time) int {
	cutoff := now.Add(-reg.cfg.SessionTimeout)

	var idle []*Room

	reg.mu.Lock()
	for pin, room := range reg.rooms {
		if room.idle(cutoff) {
			delete(reg.rooms, pin)
			idle = append(idle, room)
		}
	}
	reg.mu.Unlock()

	for _, room := range idle {
		reg.cfg.Logf("ROOMS: Reaped %s", room.pin)
		room.close(ErrorEvent{Message: "Room closed due to inactivity"})
	}

	return len(idle)
}

// Shutdown stops the reaper and closes every room. It is safe to call more
// than once.
func (reg *Registry) Shutdown() {
	reg.stopOnce.Do(func() {
		close(reg.stop)
	})
	reg.wg.Wait()

	reg.mu.Lock()
	rooms := reg.rooms
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()

	for _, room := range rooms {
		room.close(ErrorEvent{Message: "Server is shutting down"})
	}
}
