package entity

import (
	"fmt"
	"time"

	"github.com/gamehubio/gamehub-backend/internal/apperror"
)

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	SymbolX   = "X"
	SymbolO   = "O"
	EmptyCell = ""

	ReasonWin         = "win"
	ReasonDraw        = "draw"
	ReasonTimeout     = "timeout"
	ReasonResignation = "resignation"

	GameTicTacToe = "tictactoe"

	BoardSize = 9
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Move is one entry of the append-only move log.
type Move struct {
	Player string    `json:"player"`
	Cell   int       `json:"cell"`
	Symbol string    `json:"symbol"`
	At     time.Time `json:"at"`
}

type Result struct {
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Match is the persisted state of one two-player game. Players are kept in
// discovery order; Turn holds the id of the player whose move is legal.
type Match struct {
	ID        string            `json:"id"`
	Game      string            `json:"game"`
	Players   [2]string         `json:"players"`
	Symbols   map[string]string `json:"symbols"`
	Board     [9]string         `json:"board"`
	Turn      string            `json:"turn"`
	Moves     []Move            `json:"moves"`
	Result    Result            `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMatch - creates an ongoing match between two players. The coin flip
// result decides which of them opens the game; the opener always plays X.
func NewMatch(id, game, playerA, playerB string, openerIsA bool) *Match {
	opener, second := playerA, playerB
	if !openerIsA {
		opener, second = playerB, playerA
	}

	return &Match{
		ID:      id,
		Game:    game,
		Players: [2]string{playerA, playerB},
		Symbols: map[string]string{
			opener: SymbolX,
			second: SymbolO,
		},
		Turn:      opener,
		Result:    Result{Status: StatusOngoing},
		CreatedAt: time.Now().UTC(),
	}
}

func (that *Match) IsFinished() bool {
	return that.Result.Status == StatusFinished
}

func (that *Match) IsOngoing() bool {
	return that.Result.Status == StatusOngoing
}

func (that *Match) IsParticipant(playerID string) bool {
	return that.Players[0] == playerID || that.Players[1] == playerID
}

// Opponent - returns the other participant's id.
func (that *Match) Opponent(playerID string) string {
	if that.Players[0] == playerID {
		return that.Players[1]
	}
	return that.Players[0]
}

func (that *Match) SymbolOf(playerID string) string {
	return that.Symbols[playerID]
}

// ApplyMove - validates and applies one move. On a rejected move the match
// is left untouched and a sentinel error is returned.
func (that *Match) ApplyMove(playerID string, cell int, at time.Time) error {
	if that.IsFinished() {
		return apperror.ErrMatchFinished
	}

	if !that.IsParticipant(playerID) {
		return apperror.ErrNotParticipant
	}

	if that.Turn != playerID {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	symbol := that.SymbolOf(playerID)
	that.Board[cell] = symbol
	that.Moves = append(that.Moves, Move{
		Player: playerID,
		Cell:   cell,
		Symbol: symbol,
		At:     at,
	})

	switch {
	case that.hasLine(symbol):
		that.finish(playerID, ReasonWin)
	case that.boardFull():
		that.finish("", ReasonDraw)
	default:
		that.Turn = that.Opponent(playerID)
	}

	return nil
}

// FinishDraw - terminal transition on an accepted draw offer.
func (that *Match) FinishDraw() error {
	if that.IsFinished() {
		return apperror.ErrMatchFinished
	}

	that.finish("", ReasonDraw)

	return nil
}

// FinishTimeout - the turn holder failed to move in time and loses.
func (that *Match) FinishTimeout(loserID string) error {
	if that.IsFinished() {
		return apperror.ErrMatchFinished
	}

	that.finish(that.Opponent(loserID), ReasonTimeout)

	return nil
}

// FinishResignation - the leaving player loses.
func (that *Match) FinishResignation(loserID string) error {
	if that.IsFinished() {
		return apperror.ErrMatchFinished
	}

	if !that.IsParticipant(loserID) {
		return apperror.ErrNotParticipant
	}

	that.finish(that.Opponent(loserID), ReasonResignation)

	return nil
}

func (that *Match) finish(winnerID, reason string) {
	that.Result = Result{
		Status: StatusFinished,
		Winner: winnerID,
		Reason: reason,
	}
	that.Turn = ""
}

func (that *Match) hasLine(symbol string) bool {
	for _, combo := range WinCombos {
		if that.Board[combo[0]] == symbol && that.Board[combo[1]] == symbol && that.Board[combo[2]] == symbol {
			return true
		}
	}

	return false
}

func (that *Match) boardFull() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}
