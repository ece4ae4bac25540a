/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Event is a message sent from the server to a client.
type Event interface {
	EventName() string
}

// Conn is the transport handle the room delivers events to. Send must not
// block; Close delivers a final event and ends the session.
type Conn interface {
	Send(ev Event)
	Close(ev Event)
}

type PlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Status      Status `json:"status"`
}

type ScoreEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

type AnswerView struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
}

type VoteView struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

type RoomJoined struct {
	RoomID string `json:"roomId"`
	Pin    string `json:"pin"`
}

type RoomUpdate struct {
	Players []PlayerView `json:"players"`
	Phase   Phase        `json:"phase"`
}

type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Retry   bool   `json:"retry,omitempty"`
}

type RoundStart struct {
	RoundNumber  int `json:"roundNumber"`
	TimerSeconds int `json:"timerSeconds"`
}

// Prompt is unicast; Impostor selects the event name and is never encoded.
type Prompt struct {
	Impostor bool         `json:"-"`
	Text     string       `json:"text"`
	Players  []PlayerView `json:"players"`
}

type AnswersUpdate struct {
	Answers []AnswerView `json:"answers"`
}

type DiscussionStart struct {
	TimerSeconds int    `json:"timerSeconds"`
	Question     string `json:"question"`
}

type VotingStart struct {
	TimerSeconds int          `json:"timerSeconds"`
	Players      []PlayerView `json:"players"`
}

type TimerUpdate struct {
	SecondsLeft int `json:"secondsLeft"`
}

type RoundResult struct {
	ImpostorID       string       `json:"impostorId"`
	ImpostorCaught   bool         `json:"impostorCaught"`
	ImpostorQuestion string       `json:"impostorQuestion"`
	Votes            []VoteView   `json:"votes"`
	Scores           []ScoreEntry `json:"scores"`
}

type GameEnd struct {
	FinalScores []ScoreEntry `json:"finalScores"`
}

type PlayerKicked struct {
	Message string `json:"message"`
}

type ThemeUpdate struct {
	Theme any `json:"theme"`
}

func (RoomJoined) EventName() string      { return "room:joined" }
func (RoomUpdate) EventName() string      { return "room:update" }
func (ErrorEvent) EventName() string      { return "error" }
func (RoundStart) EventName() string      { return "round:start" }
func (AnswersUpdate) EventName() string   { return "answers:update" }
func (DiscussionStart) EventName() string { return "discussion:start" }
func (VotingStart) EventName() string     { return "voting:start" }
func (TimerUpdate) EventName() string     { return "timer:update" }
func (RoundResult) EventName() string     { return "round:result" }
func (GameEnd) EventName() string         { return "game:end" }
func (PlayerKicked) EventName() string    { return "player:kicked" }
func (ThemeUpdate) EventName() string     { return "theme:update" }

func (p Prompt) EventName() string {
	if p.Impostor {
		return "prompt:impostor"
	}
	return "prompt:group"
}
