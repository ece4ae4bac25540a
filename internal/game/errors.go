/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "errors"

// Error is a game error whose text is safe to show to players.
type Error string

// Error implements the error interface
func (e Error) Error() string {
	return string(e)
}

const (
	ErrRoomNotFound       Error = "Room not found"
	ErrGameInProgress     Error = "Game already in progress"
	ErrUserIDRequired     Error = "A user id is required"
	ErrNameRequired       Error = "Display name is required"
	ErrNameTaken          Error = "That player name is already in use. Pick another name."
	ErrNameReserved       Error = "That name belongs to a player who just disconnected. Try again in a moment."
	ErrRoomFull           Error = "Room is full"
	ErrCannotStart        Error = "Cannot start game"
	ErrNotEnoughPlayers   Error = "Not enough players to start"
	ErrInvalidSettings    Error = "Invalid game settings"
	ErrNotAnswering       Error = "Not in answering phase"
	ErrNotDiscussing      Error = "Not in discussion phase"
	ErrNotVoting          Error = "Not in voting phase"
	ErrNotHost            Error = "Only the host can do that"
	ErrUnknownPlayer      Error = "Unknown player"
	ErrNotInRoom          Error = "You are not in this room"
	ErrGracePeriodExpired Error = "Your seat in this room has been released"
	ErrNoPlayers          Error = "No players available to start a round"
	ErrMissingHost        Error = "Missing hostId or displayName"
	ErrPinUnavailable     Error = "Could not allocate a room pin"
)

// Configuration errors, returned from NewRegistry.
var (
	ErrNilConfig     = errors.New("config cannot be nil")
	ErrNilCatalog    = errors.New("question catalog cannot be nil")
	ErrMinPlayers    = errors.New("minimum players cannot be below 3")
	ErrMaxPlayers    = errors.New("maximum players cannot be below the minimum")
	ErrInvalidTimers = errors.New("timers and points must be positive")
)

// ErrorEventFor converts an error into the event sent back to the client
// that caused it. Anything that is not a game Error is reported generically.
func ErrorEventFor(err error) ErrorEvent {
	var ge Error
	if !errors.As(err, &ge) {
		return ErrorEvent{Message: "Something went wrong"}
	}

	ev := ErrorEvent{Message: ge.Error()}
	if ge == ErrNameReserved {
		ev.Code = "name_reserved"
		ev.Retry = true
	}

	return ev
}
