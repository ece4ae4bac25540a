package game

import "time"

type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Player is one room membership. The id is supplied by the client and stays
// the same across reconnects.
type Player struct {
	ID             string
	DisplayName    string
	Status         Status
	DisconnectedAt time.Time

	conn     Conn
	eviction task

	// disconnects counts drops so a stale eviction callback can tell it has
	// been superseded by a reconnect and a newer drop.
	disconnects uint64
}

func (p *Player) connected() bool {
	return p.Status == StatusConnected
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Status:      p.Status,
	}
}
