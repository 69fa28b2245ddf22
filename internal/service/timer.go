package service

import (
	"log/slog"
	"sync"
	"time"
)

// TimerService enforces the per-move deadline. Exactly one live timer
// exists per ongoing match; arming always supersedes the previous timer.
// The in-memory implementation below suits a single instance; a
// multi-instance deployment would put a durable scheduler behind the same
// interface.
type TimerService interface {
	Arm(matchID, turnPlayerID string, deadline time.Duration)
	Cancel(matchID string)
}

type armedTimer struct {
	turnPlayerID string
	timer        *time.Timer
	done         chan struct{}
}

type TurnTimer struct {
	logger      *slog.Logger
	broadcaster Broadcaster
	tick        time.Duration

	mu     sync.Mutex
	armed  map[string]*armedTimer
	expire func(matchID, turnPlayerID string)
}

func NewTurnTimer(logger *slog.Logger, broadcaster Broadcaster) *TurnTimer {
	return &TurnTimer{
		logger:      logger.With("component", "turn_timer"),
		broadcaster: broadcaster,
		tick:        time.Second,
		armed:       make(map[string]*armedTimer),
	}
}

// OnExpire - binds the expiry callback. Set once during wiring, before any
// timer is armed; resolves the construction cycle between the timer and
// the coordinator that consumes it.
func (that *TurnTimer) OnExpire(fn func(matchID, turnPlayerID string)) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.expire = fn
}

func (that *TurnTimer) Arm(matchID, turnPlayerID string, deadline time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelLocked(matchID)

	armed := &armedTimer{
		turnPlayerID: turnPlayerID,
		done:         make(chan struct{}),
	}
	armed.timer = time.AfterFunc(deadline, func() {
		that.fire(matchID, armed)
	})
	that.armed[matchID] = armed

	go that.countdown(matchID, turnPlayerID, deadline, armed.done)
}

func (that *TurnTimer) Cancel(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelLocked(matchID)
}

func (that *TurnTimer) cancelLocked(matchID string) {
	armed, ok := that.armed[matchID]
	if !ok {
		return
	}

	armed.timer.Stop()
	close(armed.done)
	delete(that.armed, matchID)
}

// fire - runs on the expiry goroutine. A timer superseded or canceled
// after scheduling but before this check stays silent.
func (that *TurnTimer) fire(matchID string, armed *armedTimer) {
	that.mu.Lock()
	current, ok := that.armed[matchID]
	if !ok || current != armed {
		that.mu.Unlock()
		return
	}
	delete(that.armed, matchID)
	close(armed.done)
	expire := that.expire
	that.mu.Unlock()

	that.logger.Info("turn timer expired", "matchID", matchID, "playerID", armed.turnPlayerID)

	if expire != nil {
		expire(matchID, armed.turnPlayerID)
	}
}

// countdown - pushes a once-per-tick non-authoritative timerUpdate to the
// match room for UI display. It never mutates match state.
func (that *TurnTimer) countdown(matchID, turnPlayerID string, deadline time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(that.tick)
	defer ticker.Stop()

	timeLeft := int(deadline / that.tick)

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			timeLeft--
			that.broadcaster.ToMatch(matchID, EventTimerUpdate, TimerUpdatePayload{
				TimeLeft:      timeLeft,
				CurrentPlayer: turnPlayerID,
			})
			if timeLeft <= 0 {
				return
			}
		}
	}
}
