package archive

import "time"

// Game is the archived summary of a finished game
type Game struct {
	ID      string    `json:"id"`
	Pin     string    `json:"pin"`
	Rounds  int       `json:"rounds"`
	EndedAt time.Time `json:"endedAt"`
	Scores  []Score   `json:"scores"`
}

// Score is one leaderboard line
type Score struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// SaveGameInput contains parameters for archiving a game
type SaveGameInput struct {
	Game *Game
}

// ListRecentGamesInput contains parameters for listing archived games
type ListRecentGamesInput struct {
	Limit int
}

// ListRecentGamesOutput contains the archived games
type ListRecentGamesOutput struct {
	Games []*Game
}
