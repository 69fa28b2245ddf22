package entity

import "time"

// Ticket is one player's pending matchmaking request. At most one ticket
// exists per player; it is consumed on pairing or explicit cancel.
type Ticket struct {
	PlayerID  string    `json:"player_id"`
	Game      string    `json:"game"`
	ConnID    string    `json:"conn_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
