package archive

import "context"

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/Seednode/impostor/internal/archive Repository

// Repository stores the final leaderboard of finished games
type Repository interface {
	// SaveGame records a finished game
	SaveGame(ctx context.Context, input *SaveGameInput) error

	// ListRecentGames returns the most recently finished games, newest first
	ListRecentGames(ctx context.Context, input *ListRecentGamesInput) (*ListRecentGamesOutput, error)
}
