package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
)

func newTestMatch() *Match {
	return NewMatch("12345678", GameTicTacToe, "alice", "bob", true)
}

func mustMove(t *testing.T, match *Match, playerID string, cell int) {
	t.Helper()
	require.NoError(t, match.ApplyMove(playerID, cell, time.Now().UTC()))
}

func TestNewMatch(t *testing.T) {
	t.Run("Opener plays X and holds the first turn", func(t *testing.T) {
		// Given: a coin flip won by the first player
		match := NewMatch("1", GameTicTacToe, "alice", "bob", true)

		// Then: alice opens with X, bob answers with O
		assert.Equal(t, "alice", match.Turn)
		assert.Equal(t, SymbolX, match.SymbolOf("alice"))
		assert.Equal(t, SymbolO, match.SymbolOf("bob"))
		assert.True(t, match.IsOngoing())
	})

	t.Run("Coin flip can hand the opening to the second player", func(t *testing.T) {
		// Given: a coin flip won by the second player
		match := NewMatch("1", GameTicTacToe, "alice", "bob", false)

		// Then: bob opens with X
		assert.Equal(t, "bob", match.Turn)
		assert.Equal(t, SymbolX, match.SymbolOf("bob"))
		assert.Equal(t, SymbolO, match.SymbolOf("alice"))
	})
}

func TestMatch_ApplyMove_Validation(t *testing.T) {
	t.Run("Rejects a move out of turn", func(t *testing.T) {
		match := newTestMatch()

		err := match.ApplyMove("bob", 0, time.Now().UTC())

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, EmptyCell, match.Board[0])
		assert.Empty(t, match.Moves)
	})

	t.Run("Rejects a move from a non-participant", func(t *testing.T) {
		match := newTestMatch()

		err := match.ApplyMove("mallory", 0, time.Now().UTC())

		assert.ErrorIs(t, err, apperror.ErrNotParticipant)
	})

	t.Run("Rejects an out-of-range cell", func(t *testing.T) {
		match := newTestMatch()

		assert.ErrorIs(t, match.ApplyMove("alice", -1, time.Now().UTC()), apperror.ErrInvalidCell)
		assert.ErrorIs(t, match.ApplyMove("alice", 9, time.Now().UTC()), apperror.ErrInvalidCell)
	})

	t.Run("Rejects an occupied cell", func(t *testing.T) {
		match := newTestMatch()
		mustMove(t, match, "alice", 4)

		err := match.ApplyMove("bob", 4, time.Now().UTC())

		assert.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("Rejects any move after the match finished", func(t *testing.T) {
		match := newTestMatch()
		require.NoError(t, match.FinishDraw())

		err := match.ApplyMove("alice", 0, time.Now().UTC())

		assert.ErrorIs(t, err, apperror.ErrMatchFinished)
	})

	t.Run("A rejected move leaves the board and turn untouched", func(t *testing.T) {
		match := newTestMatch()
		before := *match

		_ = match.ApplyMove("bob", 3, time.Now().UTC())

		assert.Equal(t, before.Board, match.Board)
		assert.Equal(t, before.Turn, match.Turn)
		assert.Len(t, match.Moves, 0)
	})
}

func TestMatch_ApplyMove_TurnAlternation(t *testing.T) {
	// Given: a fresh match owned by alice
	match := newTestMatch()

	// When: players alternate moves
	mustMove(t, match, "alice", 0)
	assert.Equal(t, "bob", match.Turn)

	mustMove(t, match, "bob", 4)
	assert.Equal(t, "alice", match.Turn)

	// Then: the move log mirrors the play order
	require.Len(t, match.Moves, 2)
	assert.Equal(t, "alice", match.Moves[0].Player)
	assert.Equal(t, SymbolX, match.Moves[0].Symbol)
	assert.Equal(t, "bob", match.Moves[1].Player)
	assert.Equal(t, SymbolO, match.Moves[1].Symbol)
}

func TestMatch_ApplyMove_WinDetection(t *testing.T) {
	for _, combo := range WinCombos {
		combo := combo

		t.Run("Detects the winning line", func(t *testing.T) {
			// Given: a match where alice fills one winning line
			match := newTestMatch()

			// bob answers on cells outside the line
			free := make([]int, 0, BoardSize)
			inLine := map[int]bool{combo[0]: true, combo[1]: true, combo[2]: true}
			for cell := 0; cell < BoardSize; cell++ {
				if !inLine[cell] {
					free = append(free, cell)
				}
			}

			mustMove(t, match, "alice", combo[0])
			mustMove(t, match, "bob", free[0])
			mustMove(t, match, "alice", combo[1])
			mustMove(t, match, "bob", free[1])
			mustMove(t, match, "alice", combo[2])

			// Then: alice wins and the match closes
			assert.True(t, match.IsFinished())
			assert.Equal(t, "alice", match.Result.Winner)
			assert.Equal(t, ReasonWin, match.Result.Reason)
			assert.Equal(t, "", match.Turn)
		})
	}
}

func TestMatch_ApplyMove_Draw(t *testing.T) {
	// Given: a played-out game with no winner
	// X O X
	// X O O
	// O X X
	match := newTestMatch()

	moves := []struct {
		player string
		cell   int
	}{
		{"alice", 0}, {"bob", 1}, {"alice", 2},
		{"bob", 4}, {"alice", 3}, {"bob", 5},
		{"alice", 7}, {"bob", 6}, {"alice", 8},
	}

	for _, m := range moves {
		mustMove(t, match, m.player, m.cell)
	}

	// Then: the full board without a line is a draw
	assert.True(t, match.IsFinished())
	assert.Equal(t, "", match.Result.Winner)
	assert.Equal(t, ReasonDraw, match.Result.Reason)
}

func TestMatch_FinishTimeout(t *testing.T) {
	t.Run("The turn holder loses on timeout", func(t *testing.T) {
		match := newTestMatch()

		require.NoError(t, match.FinishTimeout("alice"))

		assert.True(t, match.IsFinished())
		assert.Equal(t, "bob", match.Result.Winner)
		assert.Equal(t, ReasonTimeout, match.Result.Reason)
	})

	t.Run("A finished match cannot time out again", func(t *testing.T) {
		match := newTestMatch()
		require.NoError(t, match.FinishTimeout("alice"))

		assert.ErrorIs(t, match.FinishTimeout("bob"), apperror.ErrMatchFinished)
		assert.Equal(t, "bob", match.Result.Winner)
	})
}

func TestMatch_FinishResignation(t *testing.T) {
	t.Run("The leaving player loses", func(t *testing.T) {
		match := newTestMatch()

		require.NoError(t, match.FinishResignation("bob"))

		assert.Equal(t, "alice", match.Result.Winner)
		assert.Equal(t, ReasonResignation, match.Result.Reason)
	})

	t.Run("Only participants can resign", func(t *testing.T) {
		match := newTestMatch()

		assert.ErrorIs(t, match.FinishResignation("mallory"), apperror.ErrNotParticipant)
		assert.True(t, match.IsOngoing())
	})
}

func TestMatch_FinishDraw(t *testing.T) {
	match := newTestMatch()

	require.NoError(t, match.FinishDraw())

	assert.True(t, match.IsFinished())
	assert.Equal(t, "", match.Result.Winner)
	assert.Equal(t, ReasonDraw, match.Result.Reason)

	assert.ErrorIs(t, match.FinishDraw(), apperror.ErrMatchFinished)
}

func TestMatch_Opponent(t *testing.T) {
	match := newTestMatch()

	assert.Equal(t, "bob", match.Opponent("alice"))
	assert.Equal(t, "alice", match.Opponent("bob"))
}
