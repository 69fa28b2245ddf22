package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/testing/suite"
)

func TestMatchRepository_CreateAndGet(t *testing.T) {
	ctx, st := suite.New(t)
	matchRepo := NewMatchRepository(st.Storage)

	// Given: a fresh match
	match := entity.NewMatch("12345678", entity.GameTicTacToe, "alice", "bob", true)

	// When: it is persisted and read back
	require.NoError(t, matchRepo.Create(ctx, match))

	stored, err := matchRepo.GetByID(ctx, match.ID)

	// Then: the round trip preserves the whole document
	require.NoError(t, err)
	assert.Equal(t, match.ID, stored.ID)
	assert.Equal(t, match.Players, stored.Players)
	assert.Equal(t, match.Symbols, stored.Symbols)
	assert.Equal(t, match.Turn, stored.Turn)
	assert.True(t, stored.IsOngoing())
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	ctx, st := suite.New(t)
	matchRepo := NewMatchRepository(st.Storage)

	stored, err := matchRepo.GetByID(ctx, "missing")

	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	assert.Nil(t, stored)
}

func TestMatchRepository_Mutate(t *testing.T) {
	t.Run("Applies the mutation and returns the updated match", func(t *testing.T) {
		ctx, st := suite.New(t)
		matchRepo := NewMatchRepository(st.Storage)

		match := entity.NewMatch("12345678", entity.GameTicTacToe, "alice", "bob", true)
		require.NoError(t, matchRepo.Create(ctx, match))

		// When: alice makes her opening move through Mutate
		updated, err := matchRepo.Mutate(ctx, match.ID, func(m *entity.Match) error {
			return m.ApplyMove("alice", 4, time.Now().UTC())
		})

		// Then: the returned and stored state agree
		require.NoError(t, err)
		assert.Equal(t, entity.SymbolX, updated.Board[4])
		assert.Equal(t, "bob", updated.Turn)

		stored, err := matchRepo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Board, stored.Board)
	})

	t.Run("A mutator error aborts without writing", func(t *testing.T) {
		ctx, st := suite.New(t)
		matchRepo := NewMatchRepository(st.Storage)

		match := entity.NewMatch("12345678", entity.GameTicTacToe, "alice", "bob", true)
		require.NoError(t, matchRepo.Create(ctx, match))

		// When: an out-of-turn move is attempted
		_, err := matchRepo.Mutate(ctx, match.ID, func(m *entity.Match) error {
			return m.ApplyMove("bob", 0, time.Now().UTC())
		})

		// Then: the sentinel comes through raw and nothing changed
		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)

		stored, gerr := matchRepo.GetByID(ctx, match.ID)
		require.NoError(t, gerr)
		assert.Equal(t, entity.EmptyCell, stored.Board[0])
	})

	t.Run("Mutating an unknown match", func(t *testing.T) {
		ctx, st := suite.New(t)
		matchRepo := NewMatchRepository(st.Storage)

		_, err := matchRepo.Mutate(ctx, "missing", func(*entity.Match) error {
			return nil
		})

		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Concurrent mutations all land", func(t *testing.T) {
		ctx, st := suite.New(t)
		matchRepo := NewMatchRepository(st.Storage)

		match := entity.NewMatch("12345678", entity.GameTicTacToe, "alice", "bob", true)
		require.NoError(t, matchRepo.Create(ctx, match))

		// When: many writers append to the move log concurrently
		const writers = 4

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = matchRepo.Mutate(ctx, match.ID, func(m *entity.Match) error {
					m.Moves = append(m.Moves, entity.Move{Player: "alice", At: time.Now().UTC()})
					return nil
				})
			}()
		}
		wg.Wait()

		// Then: no append was lost to a lost-update race
		stored, err := matchRepo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Moves, writers)
	})
}
