package websocket

import (
	"encoding/json"
	"errors"
)

// Message is the client-to-server frame: an action name plus a payload
// whose shape depends on the action.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type registerPayload struct {
	PlayerID string `json:"playerId"`
}

func (that *registerPayload) validate() error {
	if that.PlayerID == "" {
		return errors.New("playerId is required")
	}

	return nil
}

type requestMatchPayload struct {
	Game string `json:"game"`
}

func (that *requestMatchPayload) validate() error {
	if that.Game == "" {
		return errors.New("game is required")
	}

	return nil
}

type matchRoomPayload struct {
	MatchID string `json:"matchId"`
}

func (that *matchRoomPayload) validate() error {
	if that.MatchID == "" {
		return errors.New("matchId is required")
	}

	return nil
}

type makeMovePayload struct {
	MatchID string `json:"matchId"`
	Cell    *int   `json:"cell"`
}

func (that *makeMovePayload) validate() error {
	if that.MatchID == "" {
		return errors.New("matchId is required")
	}

	if that.Cell == nil {
		return errors.New("cell is required")
	}

	return nil
}
