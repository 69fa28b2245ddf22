package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
	"github.com/gamehubio/gamehub-backend/internal/entity"
	"github.com/gamehubio/gamehub-backend/internal/repository"
)

// The in-memory fakes below mirror the store-native atomicity of the real
// repositories: every operation runs under one lock, so the services'
// concurrency assumptions hold in tests too.

type sentEvent struct {
	Target  string
	Event   string
	Payload any
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	toPlayer []sentEvent
	toMatch  []sentEvent
}

func (that *fakeBroadcaster) ToPlayer(playerID, event string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.toPlayer = append(that.toPlayer, sentEvent{Target: playerID, Event: event, Payload: payload})
}

func (that *fakeBroadcaster) ToMatch(matchID, event string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.toMatch = append(that.toMatch, sentEvent{Target: matchID, Event: event, Payload: payload})
}

func (that *fakeBroadcaster) playerEvents(playerID string) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []sentEvent
	for _, e := range that.toPlayer {
		if e.Target == playerID {
			out = append(out, e)
		}
	}
	return out
}

func (that *fakeBroadcaster) matchEvents(matchID string) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []sentEvent
	for _, e := range that.toMatch {
		if e.Target == matchID {
			out = append(out, e)
		}
	}
	return out
}

type timerCall struct {
	MatchID      string
	TurnPlayerID string
	Deadline     time.Duration
}

type fakeTimers struct {
	mu      sync.Mutex
	arms    []timerCall
	cancels []string
}

func (that *fakeTimers) Arm(matchID, turnPlayerID string, deadline time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.arms = append(that.arms, timerCall{MatchID: matchID, TurnPlayerID: turnPlayerID, Deadline: deadline})
}

func (that *fakeTimers) Cancel(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.cancels = append(that.cancels, matchID)
}

func (that *fakeTimers) lastArm() (timerCall, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.arms) == 0 {
		return timerCall{}, false
	}
	return that.arms[len(that.arms)-1], true
}

type memMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*entity.Match
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{matches: make(map[string]*entity.Match)}
}

func cloneMatch(match *entity.Match) *entity.Match {
	raw, _ := json.Marshal(match)
	var out entity.Match
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (that *memMatchRepo) Create(_ context.Context, match *entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.matches[match.ID] = cloneMatch(match)
	return nil
}

func (that *memMatchRepo) GetByID(_ context.Context, id string) (*entity.Match, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	match, ok := that.matches[id]
	if !ok {
		return nil, apperror.ErrMatchNotFound
	}
	return cloneMatch(match), nil
}

func (that *memMatchRepo) Mutate(_ context.Context, id string, fn func(match *entity.Match) error) (*entity.Match, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	stored, ok := that.matches[id]
	if !ok {
		return nil, apperror.ErrMatchNotFound
	}

	working := cloneMatch(stored)
	if err := fn(working); err != nil {
		return nil, err
	}

	that.matches[id] = cloneMatch(working)
	return working, nil
}

type memPlayerRepo struct {
	mu      sync.Mutex
	players map[string]*entity.Player
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{players: make(map[string]*entity.Player)}
}

func (that *memPlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	clone := *player
	that.players[player.ID] = &clone
	return nil
}

func (that *memPlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	clone := *player
	return &clone, nil
}

type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*entity.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]*entity.Ticket)}
}

// MatchOrEnqueue applies the same pair-or-wait decision as the store
// script: oldest compatible ticket wins, self-requeue reports queued.
func (that *memTicketRepo) MatchOrEnqueue(_ context.Context, ticket *entity.Ticket) (*entity.Ticket, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, queued := that.tickets[ticket.PlayerID]; queued {
		return nil, apperror.ErrAlreadyQueued
	}

	var candidates []*entity.Ticket
	for _, waiting := range that.tickets {
		if waiting.Game == ticket.Game {
			candidates = append(candidates, waiting)
		}
	}

	if len(candidates) == 0 {
		that.tickets[ticket.PlayerID] = ticket
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	partner := candidates[0]
	delete(that.tickets, partner.PlayerID)

	return partner, nil
}

func (that *memTicketRepo) Cancel(_ context.Context, playerID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.tickets[playerID]; !ok {
		return false, nil
	}
	delete(that.tickets, playerID)
	return true, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entity.User)}
}

func (that *memUserRepo) Save(_ context.Context, user *entity.User) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	clone := *user
	that.users[user.ID] = &clone
	return nil
}

func (that *memUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, ok := that.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (that *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, user := range that.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (that *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, user := range that.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperror.ErrNotFound
}
