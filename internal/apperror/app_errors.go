package apperror

import "errors"

var (
	ErrMatchFinished  = errors.New("match is already finished")
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrNotParticipant = errors.New("player is not part of this match")

	ErrAlreadyQueued  = errors.New("player is already in the matchmaking queue")
	ErrAlreadyInMatch = errors.New("player is already in a match")

	ErrDrawAlreadyOffered = errors.New("a draw offer is already pending")

	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already exists")
	ErrBadCredential = errors.New("invalid email or password")
)
