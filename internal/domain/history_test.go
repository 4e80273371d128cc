package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHistoryAscending(t *testing.T) {
	g := New()
	playMoves(t, g, 4, 0, 5)

	entries := g.Entries()
	require.Len(t, entries, 4)

	assert.Equal(t, HistoryEntry{Move: 0, Description: "Go to game start"}, entries[0])
	assert.Equal(t, HistoryEntry{
		Move:        1,
		Description: "Go to move #1",
		Annotation:  "X (2,2)",
		Mark:        X,
		Row:         2,
		Col:         2,
	}, entries[1])
	assert.Equal(t, "O (1,1)", entries[2].Annotation)
	// cell 5 is row 2, col 3
	assert.Equal(t, "X (3,2)", entries[3].Annotation)
	assert.True(t, entries[3].Current)
	assert.Equal(t, "You are at move #3 — X (3,2)", entries[3].Label())
	assert.Equal(t, "Go to move #2 — O (1,1)", entries[2].Label())
	assert.Equal(t, "Go to game start", entries[0].Label())
}

func TestFormatHistoryDescending(t *testing.T) {
	g := New()
	playMoves(t, g, 4, 0, 5)
	g.ToggleSortOrder()

	entries := g.Entries()
	require.Len(t, entries, 4)
	for k, e := range entries {
		assert.Equal(t, 3-k, e.Move)
	}
	assert.True(t, entries[0].Current)
	assert.Equal(t, "X (2,2)", entries[2].Annotation)
}

func TestFormatHistoryMarksViewedMove(t *testing.T) {
	g := New()
	playMoves(t, g, 4, 0)
	require.NoError(t, g.JumpTo(0))

	entries := g.Entries()
	assert.True(t, entries[0].Current)
	assert.Equal(t, "You are at move #0", entries[0].Label())
	assert.False(t, entries[1].Current)
	assert.False(t, entries[2].Current)
}

func TestFormatHistoryDoesNotMutate(t *testing.T) {
	history := []Board{{}, {X}, {X, O}}
	cp := append([]Board(nil), history...)

	FormatHistory(history, 1, Descending)
	assert.Equal(t, cp, history)
}

func TestFormatHistoryUnchangedStep(t *testing.T) {
	// no differing cell yields no annotation
	entries := FormatHistory([]Board{{}, {}}, 0, Ascending)
	assert.Equal(t, "Go to move #1", entries[1].Label())
	assert.Empty(t, entries[1].Annotation)
}
