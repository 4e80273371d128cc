package domain

import "fmt"

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// Size is the side length of the board.
const Size = 3

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// MarshalText encodes a cell as "X", "O" or "".
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the encoding produced by MarshalText.
func (c *Cell) UnmarshalText(b []byte) error {
	switch string(b) {
	case "X":
		*c = X
	case "O":
		*c = O
	case "":
		*c = Empty
	default:
		return fmt.Errorf("invalid cell %q", b)
	}
	return nil
}

// Board is a fixed 3x3 board stored row-major.
type Board [Size * Size]Cell

// Full reports whether no cell is empty.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Position converts a cell index to 1-based row and column.
func Position(i int) (row, col int) {
	return i/Size + 1, i%Size + 1
}

// diff returns the first index where a and b differ, or -1.
func diff(a, b Board) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}

// markFor returns the mark placed by move m (move 1 is X).
func markFor(m int) Cell {
	if m%2 == 1 {
		return X
	}
	return O
}
