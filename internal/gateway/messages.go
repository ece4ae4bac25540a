/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gateway

import (
	"encoding/json"
	"strings"

	"github.com/Seednode/impostor/internal/game"
)

// Errors reported for frames that never reach a room.
const (
	ErrMalformed     game.Error = "Malformed message"
	ErrUnknownEvent  game.Error = "Unknown event"
	ErrRateLimited   game.Error = "Too many messages, slow down"
	ErrInvalidPin    game.Error = "A 6-digit room pin is required"
	ErrMissingTarget game.Error = "A target player is required"
	ErrMissingTheme  game.Error = "A theme is required"
)

// envelope is the frame format in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string     `json:"event"`
	Data  game.Event `json:"data"`
}

// message is one client→server variant, decoded and validated.
type message interface {
	validate() error
}

type joinKind int

const (
	joinPlayer joinKind = iota
	joinRejoin
	joinHost
)

// joinMessage covers room:join, room:rejoin and room:host-join.
type joinMessage struct {
	kind joinKind

	Pin         string `json:"pin"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

func (m *joinMessage) validate() error {
	switch {
	case !validPin(m.Pin):
		return ErrInvalidPin
	case strings.TrimSpace(m.UserID) == "":
		return game.ErrUserIDRequired
	case m.kind == joinPlayer && strings.TrimSpace(m.DisplayName) == "":
		return game.ErrNameRequired
	}
	return nil
}

type identifyMessage struct {
	UserID string `json:"userId"`
	Pin    string `json:"pin,omitempty"`
}

func (m *identifyMessage) validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return game.ErrUserIDRequired
	}
	if m.Pin != "" && !validPin(m.Pin) {
		return ErrInvalidPin
	}
	return nil
}

type startMessage struct {
	Pin      string                 `json:"pin"`
	Settings *game.SettingsOverride `json:"settings,omitempty"`
}

func (m *startMessage) validate() error {
	if !validPin(m.Pin) {
		return ErrInvalidPin
	}
	return nil
}

type targetKind int

const (
	targetAnswer targetKind = iota
	targetVote
	targetKick
)

// targetMessage covers answer:submit, vote:submit and player:kick.
type targetMessage struct {
	kind targetKind

	Pin          string `json:"pin"`
	TargetUserID string `json:"targetUserId"`
}

func (m *targetMessage) validate() error {
	if !validPin(m.Pin) {
		return ErrInvalidPin
	}
	if m.TargetUserID == "" {
		return ErrMissingTarget
	}
	return nil
}

type themeMessage struct {
	Pin   string `json:"pin"`
	Theme any    `json:"theme"`
}

func (m *themeMessage) validate() error {
	if !validPin(m.Pin) {
		return ErrInvalidPin
	}
	if m.Theme == nil {
		return ErrMissingTheme
	}
	return nil
}

type skipMessage struct {
	Pin    string `json:"pin"`
	HostID string `json:"hostId"`
}

func (m *skipMessage) validate() error {
	if !validPin(m.Pin) {
		return ErrInvalidPin
	}
	if m.HostID == "" {
		return game.ErrNotHost
	}
	return nil
}

var decoders = map[string]func() message{
	"room:join":                 func() message { return &joinMessage{kind: joinPlayer} },
	"room:rejoin":               func() message { return &joinMessage{kind: joinRejoin} },
	"room:host-join":            func() message { return &joinMessage{kind: joinHost} },
	"user:identify":             func() message { return &identifyMessage{} },
	"game:start":                func() message { return &startMessage{} },
	"answer:submit":             func() message { return &targetMessage{kind: targetAnswer} },
	"vote:submit":               func() message { return &targetMessage{kind: targetVote} },
	"player:kick":               func() message { return &targetMessage{kind: targetKick} },
	"theme:broadcast":           func() message { return &themeMessage{} },
	"discussion:skip-to-voting": func() message { return &skipMessage{} },
}

// decode parses a raw frame into its variant and rejects it if required
// fields are missing.
func decode(raw []byte) (message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformed
	}

	newMessage, ok := decoders[env.Event]
	if !ok {
		return nil, ErrUnknownEvent
	}

	m := newMessage()
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(env.Data, m); err != nil {
		return nil, ErrMalformed
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return m, nil
}

func validPin(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
