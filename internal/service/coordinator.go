package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/repository"
)

// errStaleTimer marks a timeout that fired for a turn that has already
// concluded; it must leave the match untouched and is never surfaced.
var errStaleTimer = errors.New("stale turn timer")

const timeoutOpBudget = 5 * time.Second

type CoordinatorService interface {
	Register(ctx context.Context, playerID string) (*entity.Player, error)
	GetMatch(ctx context.Context, matchID string) (*entity.Match, error)

	ApplyMove(ctx context.Context, matchID, playerID string, cell int) error
	LeaveMatch(ctx context.Context, matchID, playerID string) error

	OfferDraw(ctx context.Context, matchID, playerID string) error
	CancelDraw(ctx context.Context, matchID, playerID string) error
	AcceptDraw(ctx context.Context, matchID string) error
	RefuseDraw(ctx context.Context, matchID, playerID string) error

	HandleTimeout(matchID, expectedTurnPlayerID string)
	HandleDisconnect(ctx context.Context, playerID string) error
}

// coordinatorService is the match state machine. Every mutating operation
// is a read-modify-write through the match repository's atomic Mutate, so
// preconditions are always re-checked against fresh state; a losing
// concurrent writer fails its own validation instead of clobbering.
type coordinatorService struct {
	logger *slog.Logger

	matches matchRepo
	players playerRepo

	broadcaster Broadcaster
	timers      TimerService
	turnTimeout time.Duration

	// Ephemeral draw negotiation: at most one outstanding offer per match.
	drawMu     sync.Mutex
	drawOffers map[string]string
}

func NewCoordinatorService(
	logger *slog.Logger,
	matches matchRepo,
	players playerRepo,
	broadcaster Broadcaster,
	timers TimerService,
	turnTimeout time.Duration,
) CoordinatorService {
	return &coordinatorService{
		logger:      logger.With("component", "coordinator"),
		matches:     matches,
		players:     players,
		broadcaster: broadcaster,
		timers:      timers,
		turnTimeout: turnTimeout,
		drawOffers:  make(map[string]string),
	}
}

// Register - binds a player identity to a live connection. A player with a
// current match resumes as in-game; anyone else comes back online.
func (that *coordinatorService) Register(ctx context.Context, playerID string) (*entity.Player, error) {
	player, err := that.players.GetByID(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		player = &entity.Player{ID: playerID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if player.MatchID != "" {
		player.Status = entity.PresenceInGame
	} else {
		player.Status = entity.PresenceOnline
	}

	if err = that.players.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	that.logger.Info("player registered", "playerID", playerID, "status", player.Status)

	return player, nil
}

func (that *coordinatorService) GetMatch(ctx context.Context, matchID string) (*entity.Match, error) {
	match, err := that.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// ApplyMove - validates and applies one move, then either advances the
// turn (re-arming the timer for the new holder) or finishes the match.
func (that *coordinatorService) ApplyMove(ctx context.Context, matchID, playerID string, cell int) error {
	log := that.logger.With("method", "ApplyMove", "matchID", matchID, "playerID", playerID)

	now := time.Now().UTC()

	match, err := that.matches.Mutate(ctx, matchID, func(match *entity.Match) error {
		return match.ApplyMove(playerID, cell, now)
	})
	if err != nil {
		return err
	}

	if match.IsFinished() {
		that.finishCleanup(ctx, match)
		that.broadcaster.ToMatch(matchID, EventGameFinished, GameFinishedPayload{Match: match})
		log.Info("match finished", "winner", match.Result.Winner, "reason", match.Result.Reason)

		return nil
	}

	that.timers.Arm(matchID, match.Turn, that.turnTimeout)
	that.broadcaster.ToMatch(matchID, EventMoveMade, MoveMadePayload{
		Board: match.Board,
		Turn:  match.Turn,
		Moves: match.Moves,
	})
	log.Info("move applied", "cell", cell, "nextTurn", match.Turn)

	return nil
}

// LeaveMatch - an explicit resignation: the leaver loses.
func (that *coordinatorService) LeaveMatch(ctx context.Context, matchID, playerID string) error {
	match, err := that.matches.Mutate(ctx, matchID, func(match *entity.Match) error {
		return match.FinishResignation(playerID)
	})
	if err != nil {
		return err
	}

	that.finishCleanup(ctx, match)
	that.broadcaster.ToMatch(matchID, EventGameFinished, GameFinishedPayload{Match: match})
	that.logger.Info("player resigned", "matchID", matchID, "playerID", playerID)

	return nil
}

func (that *coordinatorService) OfferDraw(ctx context.Context, matchID, playerID string) error {
	match, err := that.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}

	if !match.IsOngoing() {
		return apperror.ErrMatchFinished
	}

	if !match.IsParticipant(playerID) {
		return apperror.ErrNotParticipant
	}

	that.drawMu.Lock()
	if _, pending := that.drawOffers[matchID]; pending {
		that.drawMu.Unlock()
		return apperror.ErrDrawAlreadyOffered
	}
	that.drawOffers[matchID] = playerID
	that.drawMu.Unlock()

	that.broadcaster.ToPlayer(match.Opponent(playerID), EventDrawOffered, DrawOfferedPayload{From: playerID})
	that.logger.Info("draw offered", "matchID", matchID, "from", playerID)

	return nil
}

func (that *coordinatorService) CancelDraw(ctx context.Context, matchID, playerID string) error {
	match, err := that.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}

	that.clearDrawOffer(matchID)
	that.broadcaster.ToPlayer(match.Opponent(playerID), EventDrawCanceled, struct{}{})

	return nil
}

func (that *coordinatorService) AcceptDraw(ctx context.Context, matchID string) error {
	match, err := that.matches.Mutate(ctx, matchID, func(match *entity.Match) error {
		return match.FinishDraw()
	})
	if err != nil {
		return err
	}

	that.finishCleanup(ctx, match)
	that.broadcaster.ToMatch(matchID, EventGameFinished, GameFinishedPayload{Match: match})
	that.logger.Info("draw accepted", "matchID", matchID)

	return nil
}

func (that *coordinatorService) RefuseDraw(ctx context.Context, matchID, playerID string) error {
	match, err := that.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}

	that.drawMu.Lock()
	offeredBy := that.drawOffers[matchID]
	delete(that.drawOffers, matchID)
	that.drawMu.Unlock()

	// without a recorded offer the refusal still concerns the opponent,
	// never the refusing player itself
	if offeredBy == "" {
		offeredBy = match.Opponent(playerID)
	}

	that.broadcaster.ToPlayer(offeredBy, EventDrawRefused, struct{}{})

	return nil
}

// HandleTimeout - invoked by the turn timer. The turn holder the timer was
// armed for loses, unless the match already finished or the turn advanced
// in the meantime; a stale firing leaves everything untouched.
func (that *coordinatorService) HandleTimeout(matchID, expectedTurnPlayerID string) {
	log := that.logger.With("method", "HandleTimeout", "matchID", matchID)

	ctx, cancel := context.WithTimeout(context.Background(), timeoutOpBudget)
	defer cancel()

	match, err := that.matches.Mutate(ctx, matchID, func(match *entity.Match) error {
		if match.IsFinished() {
			return errStaleTimer
		}

		if match.Turn != expectedTurnPlayerID {
			return errStaleTimer
		}

		return match.FinishTimeout(expectedTurnPlayerID)
	})

	if errors.Is(err, errStaleTimer) {
		log.Debug("stale timer ignored", "playerID", expectedTurnPlayerID)
		return
	}

	if err != nil {
		log.Error("failed to resolve timeout", "error", err)
		return
	}

	that.finishCleanup(ctx, match)
	that.broadcaster.ToMatch(matchID, EventGameFinished, GameFinishedPayload{Match: match})
	log.Info("match timed out", "loser", expectedTurnPlayerID, "winner", match.Result.Winner)
}

// HandleDisconnect - degrades presence only; an ongoing match is never
// forfeited on disconnect, the turn timer resolves abandoned matches.
func (that *coordinatorService) HandleDisconnect(ctx context.Context, playerID string) error {
	player, err := that.players.GetByID(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}

	player.Status = entity.PresenceOffline
	if err = that.players.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	that.logger.Info("player disconnected", "playerID", playerID)

	return nil
}

// finishCleanup - runs after every terminal transition: the timer dies,
// the draw negotiation dies, and both players drop back to online with
// their match back-reference cleared. The match document itself is kept.
func (that *coordinatorService) finishCleanup(ctx context.Context, match *entity.Match) {
	log := that.logger.With("method", "finishCleanup", "matchID", match.ID)

	that.timers.Cancel(match.ID)
	that.clearDrawOffer(match.ID)

	for _, participantID := range match.Players {
		player, err := that.players.GetByID(ctx, participantID)
		if err != nil {
			log.Error("failed to get player", "playerID", participantID, "error", err)
			continue
		}

		player.Status = entity.PresenceOnline
		player.MatchID = ""

		if err = that.players.CreateOrUpdate(ctx, player); err != nil {
			log.Error("failed to update player", "playerID", participantID, "error", err)
		}
	}
}

func (that *coordinatorService) clearDrawOffer(matchID string) {
	that.drawMu.Lock()
	delete(that.drawOffers, matchID)
	that.drawMu.Unlock()
}
