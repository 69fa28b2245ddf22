package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/repository"
)

const leaderboardSize = 5

type ScoreService interface {
	Submit(ctx context.Context, game, username string, score int64) error
	Best(ctx context.Context, game, username string) (int64, error)
	Leaderboard(ctx context.Context, game string) ([]entity.Score, error)
}

type scoreService struct {
	logger *slog.Logger
	scores repository.ScoreRepository
}

func NewScoreService(logger *slog.Logger, scores repository.ScoreRepository) ScoreService {
	return &scoreService{
		logger: logger.With("component", "scoreService"),
		scores: scores,
	}
}

func (that *scoreService) Submit(ctx context.Context, game, username string, score int64) error {
	if err := that.scores.SubmitBest(ctx, game, username, score); err != nil {
		return fmt.Errorf("failed to submit score: %w", err)
	}

	that.logger.Info("score submitted", "game", game, "username", username, "score", score)

	return nil
}

func (that *scoreService) Best(ctx context.Context, game, username string) (int64, error) {
	return that.scores.Best(ctx, game, username)
}

func (that *scoreService) Leaderboard(ctx context.Context, game string) ([]entity.Score, error) {
	return that.scores.Top(ctx, game, leaderboardSize)
}
