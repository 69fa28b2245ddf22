package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/pkg"
	"github.com/gamehubio/gamehub-backend/internal/repository"
)

type ticketRepo interface {
	MatchOrEnqueue(ctx context.Context, ticket *entity.Ticket) (*entity.Ticket, error)
	Cancel(ctx context.Context, playerID string) (bool, error)
}

type matchRepo interface {
	Create(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	Mutate(ctx context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error)
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

// MatchResult is what a requester learns immediately: either the created
// match or the fact that it is now waiting for a peer.
type MatchResult struct {
	Matched bool
	Match   *entity.Match
}

type MatchmakingService interface {
	RequestMatch(ctx context.Context, playerID, connID, game string) (*MatchResult, error)
	CancelRequest(ctx context.Context, playerID string) error
}

type matchmakingService struct {
	logger *slog.Logger

	tickets ticketRepo
	matches matchRepo
	players playerRepo

	broadcaster Broadcaster
	timers      TimerService
	turnTimeout time.Duration
	coinFlip    func() bool
}

// NewMatchmakingService - coinFlip decides symbol and first-turn
// assignment; pass nil for the default unbiased flip (injectable so tests
// can pin the outcome).
func NewMatchmakingService(
	logger *slog.Logger,
	tickets ticketRepo,
	matches matchRepo,
	players playerRepo,
	broadcaster Broadcaster,
	timers TimerService,
	turnTimeout time.Duration,
	coinFlip func() bool,
) MatchmakingService {
	if coinFlip == nil {
		coinFlip = func() bool {
			return rand.Intn(2) == 0 //nolint: gosec // fairness, not secrecy
		}
	}

	return &matchmakingService{
		logger:      logger.With("component", "matchmaking"),
		tickets:     tickets,
		matches:     matches,
		players:     players,
		broadcaster: broadcaster,
		timers:      timers,
		turnTimeout: turnTimeout,
		coinFlip:    coinFlip,
	}
}

// RequestMatch - pairs the player with the oldest waiting peer for the
// game, or enqueues a waiting ticket. The find-partner and insert-self
// steps run as one atomic store operation, so concurrent requesters can
// never double-consume a ticket.
func (that *matchmakingService) RequestMatch(ctx context.Context, playerID, connID, game string) (*MatchResult, error) {
	log := that.logger.With("method", "RequestMatch", "playerID", playerID, "game", game)

	player, err := that.getOrCreatePlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if player.IsInGame() {
		return nil, apperror.ErrAlreadyInMatch
	}

	ticket := &entity.Ticket{
		PlayerID:  playerID,
		Game:      game,
		ConnID:    connID,
		CreatedAt: time.Now().UTC(),
	}

	partner, err := that.tickets.MatchOrEnqueue(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue ticket: %w", err)
	}

	if partner == nil {
		player.Status = entity.PresenceWaiting
		if err = that.players.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}

		that.broadcaster.ToPlayer(playerID, EventWaiting, WaitingPayload{Waiting: true})
		log.Info("player enqueued")

		return &MatchResult{Matched: false}, nil
	}

	match := entity.NewMatch(pkg.GenerateMatchID(), game, playerID, partner.PlayerID, that.coinFlip())

	if err = that.matches.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	for _, participantID := range match.Players {
		if err = that.setInGame(ctx, participantID, match.ID); err != nil {
			return nil, fmt.Errorf("failed to update player presence: %w", err)
		}
	}

	that.timers.Arm(match.ID, match.Turn, that.turnTimeout)

	for _, participantID := range match.Players {
		that.broadcaster.ToPlayer(participantID, EventMatchFound, MatchFoundPayload{Match: match})
	}

	log.Info("match created", "matchID", match.ID, "opponent", partner.PlayerID)

	return &MatchResult{Matched: true, Match: match}, nil
}

// CancelRequest - removes the player's waiting ticket; no-op when none.
func (that *matchmakingService) CancelRequest(ctx context.Context, playerID string) error {
	removed, err := that.tickets.Cancel(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to cancel ticket: %w", err)
	}

	if !removed {
		return nil
	}

	player, err := that.players.GetByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}

	if player.IsWaiting() {
		player.Status = entity.PresenceOnline
		if err = that.players.CreateOrUpdate(ctx, player); err != nil {
			return fmt.Errorf("failed to update player: %w", err)
		}
	}

	that.logger.Info("matchmaking request canceled", "playerID", playerID)

	return nil
}

func (that *matchmakingService) getOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	player, err := that.players.GetByID(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		player = &entity.Player{ID: playerID, Status: entity.PresenceOnline}
		if err = that.players.CreateOrUpdate(ctx, player); err != nil {
			return nil, err
		}
		return player, nil
	}
	if err != nil {
		return nil, err
	}

	return player, nil
}

func (that *matchmakingService) setInGame(ctx context.Context, playerID, matchID string) error {
	player, err := that.getOrCreatePlayer(ctx, playerID)
	if err != nil {
		return err
	}

	player.Status = entity.PresenceInGame
	player.MatchID = matchID

	return that.players.CreateOrUpdate(ctx, player)
}
