package entity

// Score is one leaderboard row for a single-player game.
type Score struct {
	Username string `json:"username"`
	Value    int64  `json:"score"`
}
