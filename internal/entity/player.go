package entity

const (
	PresenceOffline = "offline"
	PresenceOnline  = "online"
	PresenceWaiting = "waiting"
	PresenceInGame  = "in-game"
)

// Player is the realtime presence record of one account. Status and MatchID
// are mutated only by the matchmaking and coordinator services.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Status   string `json:"status,omitempty"`
	MatchID  string `json:"match_id,omitempty"`
}

func (that *Player) IsInGame() bool {
	return that.Status == PresenceInGame
}

func (that *Player) IsWaiting() bool {
	return that.Status == PresenceWaiting
}
