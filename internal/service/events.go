package service

import "github.com/gamehubio/gamehub-backend/internal/entity"

// Event names pushed to clients over the realtime transport.
const (
	EventRegistered   = "register"
	EventMatchFound   = "matchFound"
	EventWaiting      = "waiting"
	EventPlayerJoined = "playerJoined"
	EventMoveMade     = "moveMade"
	EventGameFinished = "gameFinished"
	EventTimerUpdate  = "timerUpdate"
	EventDrawOffered  = "drawOffered"
	EventDrawCanceled = "drawCanceled"
	EventDrawRefused  = "drawRefused"
	EventError        = "errorMessage"
)

// Broadcaster is the capability the game services use to push events:
// either to one player's live connection or to every connection subscribed
// to a match room. A missing connection is a silent no-op.
type Broadcaster interface {
	ToPlayer(playerID, event string, payload any)
	ToMatch(matchID, event string, payload any)
}

type MatchFoundPayload struct {
	Match *entity.Match `json:"match"`
}

type WaitingPayload struct {
	Waiting bool `json:"waiting"`
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
}

type MoveMadePayload struct {
	Board [9]string     `json:"board"`
	Turn  string        `json:"turn"`
	Moves []entity.Move `json:"moves"`
}

type GameFinishedPayload struct {
	Match *entity.Match `json:"match"`
}

type TimerUpdatePayload struct {
	TimeLeft      int    `json:"timeLeft"`
	CurrentPlayer string `json:"currentPlayer"`
}

type DrawOfferedPayload struct {
	From string `json:"from"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
