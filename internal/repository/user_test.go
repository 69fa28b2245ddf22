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

func seedUser(id, username, email string) *entity.User {
	return &entity.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserRepository_Save(t *testing.T) {
	t.Run("Saves and reads back a user", func(t *testing.T) {
		ctx, conn := suite.NewSQLite(t)
		userRepo := NewUserRepository(conn)

		// Given: a new user
		user := seedUser("u1", "alice", "alice@example.com")

		// When: saved and looked up three ways
		require.NoError(t, userRepo.Save(ctx, user))

		// Then: every lookup returns the same record
		byID, err := userRepo.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)

		byEmail, err := userRepo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byUsername, err := userRepo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byUsername.ID)
	})

	t.Run("The unique email constraint holds", func(t *testing.T) {
		ctx, conn := suite.NewSQLite(t)
		userRepo := NewUserRepository(conn)

		require.NoError(t, userRepo.Save(ctx, seedUser("u1", "alice", "alice@example.com")))

		err := userRepo.Save(ctx, seedUser("u2", "alice2", "alice@example.com"))

		assert.Error(t, err)
	})
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	ctx, conn := suite.NewSQLite(t)
	userRepo := NewUserRepository(conn)

	user, err := userRepo.FindByID(ctx, "missing")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, user)
}
