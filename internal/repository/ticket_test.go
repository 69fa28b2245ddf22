package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/testing/suite"
)

func newTicket(playerID string, createdAt time.Time) *entity.Ticket {
	return &entity.Ticket{
		PlayerID:  playerID,
		Game:      entity.GameTicTacToe,
		ConnID:    "conn-" + playerID,
		CreatedAt: createdAt,
	}
}

func TestTicketRepository_MatchOrEnqueue(t *testing.T) {
	t.Run("First ticket waits", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		// When: the queue is empty and alice enqueues
		partner, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("alice", time.Now().UTC()))

		// Then: no partner is found
		require.NoError(t, err)
		assert.Nil(t, partner)
	})

	t.Run("Second ticket pairs with the waiting one", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		// Given: alice waiting
		_, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("alice", time.Now().UTC()))
		require.NoError(t, err)

		// When: bob enqueues
		partner, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("bob", time.Now().UTC()))

		// Then: he consumes alice's ticket
		require.NoError(t, err)
		require.NotNil(t, partner)
		assert.Equal(t, "alice", partner.PlayerID)

		// and the queue is empty again
		next, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("carol", time.Now().UTC()))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("The oldest waiting ticket wins", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		base := time.Now().UTC()

		_, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("alice", base))
		require.NoError(t, err)
		_, err = ticketRepo.MatchOrEnqueue(ctx, newTicket("bob", base.Add(time.Second)))
		// bob pairs with alice, so re-seed two waiters with distinct ages
		require.NoError(t, err)

		_, err = ticketRepo.MatchOrEnqueue(ctx, newTicket("carol", base.Add(2*time.Second)))
		require.NoError(t, err)
		_, err = ticketRepo.MatchOrEnqueue(ctx, newTicket("dave", base.Add(3*time.Second)))
		require.NoError(t, err)

		partner, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("erin", base.Add(4*time.Second)))

		require.NoError(t, err)
		require.NotNil(t, partner)
		assert.Equal(t, "carol", partner.PlayerID)
	})

	t.Run("An outstanding ticket blocks re-enqueueing", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		_, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("alice", time.Now().UTC()))
		require.NoError(t, err)

		_, err = ticketRepo.MatchOrEnqueue(ctx, newTicket("alice", time.Now().UTC()))

		assert.ErrorIs(t, err, apperror.ErrAlreadyQueued)
	})

	t.Run("Tickets for different games never pair", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		ticket := newTicket("alice", time.Now().UTC())
		ticket.Game = "othergame"
		_, err := ticketRepo.MatchOrEnqueue(ctx, ticket)
		require.NoError(t, err)

		partner, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("bob", time.Now().UTC()))

		require.NoError(t, err)
		assert.Nil(t, partner)
	})
}

func TestTicketRepository_Cancel(t *testing.T) {
	t.Run("Cancel removes a waiting ticket", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		_, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("alice", time.Now().UTC()))
		require.NoError(t, err)

		removed, err := ticketRepo.Cancel(ctx, "alice")

		require.NoError(t, err)
		assert.True(t, removed)

		// a later requester no longer sees alice
		partner, err := ticketRepo.MatchOrEnqueue(ctx, newTicket("bob", time.Now().UTC()))
		require.NoError(t, err)
		assert.Nil(t, partner)
	})

	t.Run("Cancel without a ticket reports false", func(t *testing.T) {
		ctx, st := suite.New(t)
		ticketRepo := NewTicketRepository(st.Storage)

		removed, err := ticketRepo.Cancel(ctx, "nobody")

		require.NoError(t, err)
		assert.False(t, removed)
	})
}
