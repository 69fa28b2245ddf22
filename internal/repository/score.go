package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gamehubio/gamehub-backend/internal/entity"
)

type ScoreRepository interface {
	// SubmitBest records the score only when it beats the stored best.
	SubmitBest(ctx context.Context, game, username string, score int64) error
	Best(ctx context.Context, game, username string) (int64, error)
	Top(ctx context.Context, game string, limit int64) ([]entity.Score, error)
}

type dbScore struct {
	client *redis.Client
}

func NewScoreRepository(client *redis.Client) ScoreRepository {
	return &dbScore{
		client: client,
	}
}

func leaderboardKey(game string) string {
	return "leaderboard:" + game
}

func (that *dbScore) SubmitBest(ctx context.Context, game, username string, score int64) error {
	err := that.client.ZAddGT(ctx, leaderboardKey(game), redis.Z{
		Score:  float64(score),
		Member: username,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to submit score: %w", err)
	}

	return nil
}

func (that *dbScore) Best(ctx context.Context, game, username string) (int64, error) {
	score, err := that.client.ZScore(ctx, leaderboardKey(game), username).Result()

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get best score: %w", err)
	}

	return int64(score), nil
}

func (that *dbScore) Top(ctx context.Context, game string, limit int64) ([]entity.Score, error) {
	rows, err := that.client.ZRevRangeWithScores(ctx, leaderboardKey(game), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	scores := make([]entity.Score, 0, len(rows))
	for _, row := range rows {
		username, _ := row.Member.(string)
		scores = append(scores, entity.Score{
			Username: username,
			Value:    int64(row.Score),
		})
	}

	return scores, nil
}
