package domain

import "fmt"

// HistoryEntry is one line of the move list. Annotation is
// "<mark> (col,row)" for the cell changed by Move and empty for the game start.
type HistoryEntry struct {
	Move        int    `json:"move"`
	Description string `json:"description"`
	Annotation  string `json:"annotation,omitempty"`
	Mark        Cell   `json:"mark"`
	Row         int    `json:"row,omitempty"`
	Col         int    `json:"col,omitempty"`
	Current     bool   `json:"current"`
}

// Label is the text shown for the entry: a status line for the current
// move, a jump prompt for every other one.
func (e HistoryEntry) Label() string {
	var s string
	if e.Current {
		s = fmt.Sprintf("You are at move #%d", e.Move)
	} else {
		s = e.Description
	}
	if e.Annotation != "" {
		s += " — " + e.Annotation
	}
	return s
}

// FormatHistory describes every board in history, ascending by move or
// reversed. It does not modify history.
func FormatHistory(history []Board, current int, order SortOrder) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(history))
	for k := range history {
		m := k
		if order == Descending {
			m = len(history) - 1 - k
		}
		out = append(out, describe(history, m, current))
	}
	return out
}

func describe(history []Board, m, current int) HistoryEntry {
	e := HistoryEntry{Move: m, Current: m == current}
	if m == 0 {
		e.Description = "Go to game start"
		return e
	}
	e.Description = fmt.Sprintf("Go to move #%d", m)
	i := diff(history[m-1], history[m])
	if i < 0 {
		return e
	}
	e.Mark = markFor(m)
	e.Row, e.Col = Position(i)
	e.Annotation = fmt.Sprintf("%s (%d,%d)", e.Mark, e.Col, e.Row)
	return e
}
