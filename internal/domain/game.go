package domain

import (
	"errors"
	"fmt"
)

// SortOrder controls the display order of the move list.
type SortOrder uint8

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

func (o SortOrder) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *SortOrder) UnmarshalText(b []byte) error {
	switch string(b) {
	case "asc":
		*o = Ascending
	case "desc":
		*o = Descending
	default:
		return fmt.Errorf("invalid sort order %q", b)
	}
	return nil
}

// Errors returned by domain operations.
var (
	ErrMoveOutOfRange  = errors.New("move out of range")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Game holds the move history of one session and the position being viewed.
// It is not safe for concurrent use.
type Game struct {
	history []Board
	current int
	order   SortOrder
}

// New returns a game at the empty board with X to move.
func New() *Game {
	return &Game{history: []Board{{}}}
}

// Play places the mark of the player to move at cell i. Playing out of
// bounds, into an occupied cell or after a win is ignored and reports false.
// Any positions after the current one are discarded.
func (g *Game) Play(i int) bool {
	if i < 0 || i >= len(Board{}) {
		return false
	}
	b := g.history[g.current]
	if b[i] != Empty || Evaluate(b).Winner != Empty {
		return false
	}
	b[i] = g.Next()
	g.history = append(g.history[:g.current+1:g.current+1], b)
	g.current = len(g.history) - 1
	return true
}

// JumpTo moves the view to a recorded position without touching history.
func (g *Game) JumpTo(m int) error {
	if m < 0 || m >= len(g.history) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrMoveOutOfRange, m, len(g.history))
	}
	g.current = m
	return nil
}

// ToggleSortOrder flips the move list order.
func (g *Game) ToggleSortOrder() {
	if g.order == Ascending {
		g.order = Descending
	} else {
		g.order = Ascending
	}
}

// Restart drops all moves. The sort order is kept.
func (g *Game) Restart() {
	g.history = []Board{{}}
	g.current = 0
}

// CurrentBoard returns the board at the viewed position.
func (g *Game) CurrentBoard() Board { return g.history[g.current] }

func (g *Game) CurrentMove() int { return g.current }

func (g *Game) SortOrder() SortOrder { return g.order }

// Len is the number of recorded boards, including the empty start.
func (g *Game) Len() int { return len(g.history) }

// History returns a copy of every recorded board.
func (g *Game) History() []Board {
	return append([]Board(nil), g.history...)
}

// IsXNext reports whether X moves from the current position.
func (g *Game) IsXNext() bool { return g.current%2 == 0 }

// Next returns the mark of the player to move.
func (g *Game) Next() Cell {
	if g.IsXNext() {
		return X
	}
	return O
}

// Winner evaluates the current board.
func (g *Game) Winner() WinResult { return Evaluate(g.CurrentBoard()) }

// IsDraw reports a full board without a winner.
func (g *Game) IsDraw() bool {
	b := g.CurrentBoard()
	return b.Full() && Evaluate(b).Winner == Empty
}

// Status is the one-line summary shown above the board.
func (g *Game) Status() string {
	if w := g.Winner(); w.Winner != Empty {
		return "Winner: " + w.Winner.String()
	}
	if g.CurrentBoard().Full() {
		return "Draw!"
	}
	return "Next player: " + g.Next().String()
}

// Entries formats the move list in the current sort order.
func (g *Game) Entries() []HistoryEntry {
	return FormatHistory(g.history, g.current, g.order)
}
