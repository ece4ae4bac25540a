package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	gameKeyPrefix  = "impostor:game:"
	recentGamesKey = "impostor:games"

	defaultListLimit = 20
)

// Config holds configuration for the Redis archive
type Config struct {
	RedisClient *redis.Client

	// TTL bounds how long an archived game is kept; zero keeps it forever
	TTL time.Duration
}

type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a new Redis-backed archive
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
		ttl:    cfg.TTL,
	}, nil
}

// SaveGame stores the game under its own key and indexes it by end time
func (r *redisRepository) SaveGame(ctx context.Context, input *SaveGameInput) error {
	if input == nil || input.Game == nil {
		return errors.New("input and game cannot be nil")
	}

	game := input.Game
	if game.ID == "" {
		return errors.New("game ID cannot be empty")
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, gameKeyPrefix+game.ID, gameJSON, r.ttl)
	pipe.ZAdd(ctx, recentGamesKey, redis.Z{
		Score:  float64(game.EndedAt.UnixMilli()),
		Member: game.ID,
	})
	if r.ttl > 0 {
		// Games are saved as they end, so anything indexed more than a TTL
		// before this one has already expired.
		cutoff := game.EndedAt.Add(-r.ttl).UnixMilli()
		pipe.ZRemRangeByScore(ctx, recentGamesKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

// ListRecentGames returns archived games newest first; index entries whose
// game key has expired are skipped and dropped from the index
func (r *redisRepository) ListRecentGames(ctx context.Context, input *ListRecentGamesInput) (*ListRecentGamesOutput, error) {
	limit := defaultListLimit
	if input != nil && input.Limit > 0 {
		limit = input.Limit
	}

	ids, err := r.client.ZRevRange(ctx, recentGamesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	out := &ListRecentGamesOutput{Games: make([]*Game, 0, len(ids))}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	var stale []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}

		var game Game
		if err := json.Unmarshal([]byte(s), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}
		out.Games = append(out.Games, &game)
	}

	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, recentGamesKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune games index: %w", err)
		}
	}

	return out, nil
}
