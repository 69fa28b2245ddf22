package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
)

// Mutations retry on optimistic-lock conflicts; the mutator re-validates
// against freshly read state on every attempt, so a bounded retry count is
// safe: a loser of the race fails its own precondition check instead.
const maxMutateAttempts = 5

var ErrTooManyConflicts = errors.New("too many concurrent match updates")

type MatchRepository interface {
	Create(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	Mutate(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error)
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

func matchKey(id string) string {
	return "match:" + id
}

func (that *dbMatch) Create(ctx context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	if err = that.client.Set(ctx, matchKey(match.ID), matchJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	response, err := that.client.Get(ctx, matchKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by ID: %w", err)
	}

	var match entity.Match
	if err = json.Unmarshal([]byte(response), &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &match, nil
}

// Mutate - runs fn against a freshly read match inside a WATCH transaction
// and persists the result. If another writer touches the key first, the
// whole read-modify-write is retried, so per-match operations behave as a
// single atomic step. Errors returned by fn abort without writing.
func (that *dbMatch) Mutate(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error) {
	key := matchKey(id)

	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		var updated *entity.Match

		err := that.client.Watch(ctx, func(tx *redis.Tx) error {
			response, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				return apperror.ErrMatchNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to get match by ID: %w", err)
			}

			var match entity.Match
			if err = json.Unmarshal([]byte(response), &match); err != nil {
				return fmt.Errorf("failed to unmarshal match: %w", err)
			}

			if err = fn(&match); err != nil {
				return err
			}

			matchJSON, err := json.Marshal(&match)
			if err != nil {
				return fmt.Errorf("could not marshal match: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, matchJSON, 0)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to write match: %w", err)
			}

			updated = &match

			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return updated, nil
	}

	return nil, fmt.Errorf("match %s: %w", id, ErrTooManyConflicts)
}
