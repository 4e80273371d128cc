package domain

// Lines lists every winning triple: rows, then columns, then diagonals.
var Lines = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// WinResult is the verdict for a single board.
type WinResult struct {
	Winner Cell
	Line   []int
}

// Contains reports whether cell i is part of the winning line.
func (w WinResult) Contains(i int) bool {
	for _, c := range w.Line {
		if c == i {
			return true
		}
	}
	return false
}

// Evaluate returns the first complete line in Lines order. It never reports
// a draw; callers combine it with Board.Full.
func Evaluate(b Board) WinResult {
	for _, ln := range Lines {
		a := b[ln[0]]
		if a != Empty && a == b[ln[1]] && a == b[ln[2]] {
			return WinResult{Winner: a, Line: []int{ln[0], ln[1], ln[2]}}
		}
	}
	return WinResult{}
}
