package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/pkg"
)

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (string, *entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

type userService struct {
	logger *slog.Logger
	users  userRepo
	tokens TokenManager
}

func NewUserService(logger *slog.Logger, users userRepo, tokens TokenManager) UserService {
	return &userService{
		logger: logger.With("component", "userService"),
		users:  users,
		tokens: tokens,
	}
}

func (that *userService) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	if _, err := that.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.ErrEmailTaken
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := that.users.FindByUsername(ctx, username); err == nil {
		return nil, apperror.ErrUsernameTaken
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           pkg.GenerateNewSessionID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err = that.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	that.logger.Info("user registered", "userID", user.ID, "username", username)

	return user, nil
}

func (that *userService) Login(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := that.users.FindByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", nil, apperror.ErrBadCredential
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.ErrBadCredential
	}

	token, err := that.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return token, user, nil
}

func (that *userService) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return that.users.FindByID(ctx, id)
}
