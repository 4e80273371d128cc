package app

import "github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"

// View is everything needed to render one session.
type View struct {
	SessionID   string                `json:"sessionId"`
	Board       domain.Board          `json:"board"`
	Winner      domain.Cell           `json:"winner"`
	WinningLine []int                 `json:"winningLine"`
	Draw        bool                  `json:"draw"`
	Status      string                `json:"status"`
	Next        domain.Cell           `json:"next"`
	CurrentMove int                   `json:"currentMove"`
	Moves       int                   `json:"moves"`
	Order       domain.SortOrder      `json:"order"`
	Entries     []domain.HistoryEntry `json:"entries"`
}

// Over reports whether the viewed position accepts no more moves.
func (v View) Over() bool { return v.Winner != domain.Empty || v.Draw }

// Winning reports whether cell i belongs to the winning line.
func (v View) Winning(i int) bool {
	return domain.WinResult{Winner: v.Winner, Line: v.WinningLine}.Contains(i)
}

func newView(id string, g *domain.Game) View {
	w := g.Winner()
	line := w.Line
	if line == nil {
		line = []int{}
	}
	return View{
		SessionID:   id,
		Board:       g.CurrentBoard(),
		Winner:      w.Winner,
		WinningLine: line,
		Draw:        g.IsDraw(),
		Status:      g.Status(),
		Next:        g.Next(),
		CurrentMove: g.CurrentMove(),
		Moves:       g.Len() - 1,
		Order:       g.SortOrder(),
		Entries:     g.Entries(),
	}
}
