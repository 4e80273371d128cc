package domain

import "fmt"

// Snapshot is the serialisable form of a Game.
type Snapshot struct {
	History     []Board   `json:"history"`
	CurrentMove int       `json:"currentMove"`
	Order       SortOrder `json:"order"`
}

// Snapshot copies the game state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{History: g.History(), CurrentMove: g.current, Order: g.order}
}

// Restore rebuilds a game from a snapshot, checking that every step places
// exactly one mark of the right player on an empty cell.
func Restore(s Snapshot) (*Game, error) {
	if len(s.History) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrCorruptSnapshot)
	}
	if s.History[0] != (Board{}) {
		return nil, fmt.Errorf("%w: first board not empty", ErrCorruptSnapshot)
	}
	for m := 1; m < len(s.History); m++ {
		prev, cur := s.History[m-1], s.History[m]
		changed := 0
		for i := range cur {
			if prev[i] == cur[i] {
				continue
			}
			changed++
			if prev[i] != Empty || cur[i] != markFor(m) {
				return nil, fmt.Errorf("%w: move %d rewrites cell %d", ErrCorruptSnapshot, m, i)
			}
		}
		if changed != 1 {
			return nil, fmt.Errorf("%w: move %d changes %d cells", ErrCorruptSnapshot, m, changed)
		}
		if Evaluate(prev).Winner != Empty {
			return nil, fmt.Errorf("%w: move %d played after a win", ErrCorruptSnapshot, m)
		}
	}
	if s.CurrentMove < 0 || s.CurrentMove >= len(s.History) {
		return nil, fmt.Errorf("%w: current move %d", ErrCorruptSnapshot, s.CurrentMove)
	}
	if s.Order != Ascending && s.Order != Descending {
		return nil, fmt.Errorf("%w: sort order %d", ErrCorruptSnapshot, s.Order)
	}
	return &Game{
		history: append([]Board(nil), s.History...),
		current: s.CurrentMove,
		order:   s.Order,
	}, nil
}
