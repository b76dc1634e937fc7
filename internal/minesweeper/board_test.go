package minesweeper

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func countAround(b *Board, x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if b.InBounds(x+dx, y+dy) && b.Value(x+dx, y+dy) == Mine {
				count++
			}
		}
	}
	return count
}

func TestNewBoardInvariants(t *testing.T) {
	cases := []struct{ size, mines int }{
		{1, 0}, {2, 3}, {3, 1}, {10, 10}, {16, 40}, {30, 899},
	}
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7))
		for _, tc := range cases {
			b, err := NewBoard(tc.size, tc.mines, rng)
			require.NoError(t, err)

			mines := 0
			for y := 0; y < tc.size; y++ {
				for x := 0; x < tc.size; x++ {
					if b.Value(x, y) == Mine {
						mines++
						continue
					}
					require.Equal(t, countAround(b, x, y), b.Value(x, y), "cell %d,%d", x, y)
				}
			}
			require.Equal(t, tc.mines, mines)
			require.Equal(t, 0, b.RevealedCount())
			require.Equal(t, Playing, b.Outcome())
		}
	}
}

func TestNewBoardRejectsInvalidConfig(t *testing.T) {
	for _, tc := range []struct{ size, mines int }{{0, 0}, {3, 9}, {3, 10}, {4, -1}} {
		_, err := NewBoard(tc.size, tc.mines, nil)
		require.True(t, errors.Is(err, ErrInvalidConfig), "size=%d mines=%d: %v", tc.size, tc.mines, err)
	}
}

func TestNewBoardFromLayoutRejectsBadMines(t *testing.T) {
	_, err := NewBoardFromLayout(3, []Point{{1, 1}, {1, 1}})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewBoardFromLayout(3, []Point{{3, 0}})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRevealSingleMineBoardFloodsEverything(t *testing.T) {
	b, err := NewBoardFromLayout(3, []Point{{2, 2}})
	require.NoError(t, err)

	opened := b.Reveal(0, 0)
	require.Len(t, opened, 8)
	require.Equal(t, Won, b.Outcome())
	require.False(t, b.Revealed(2, 2))

	seen := make(map[Point]bool)
	for _, p := range opened {
		require.False(t, seen[p], "cell %v opened twice", p)
		seen[p] = true
	}
}

func TestRevealFloodStopsAtNumbers(t *testing.T) {
	// Mines form a wall on column 2; the left region must open up to the
	// numbered column 1 and never cross it.
	b, err := NewBoardFromLayout(5, []Point{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}})
	require.NoError(t, err)

	opened := b.Reveal(0, 2)
	require.Len(t, opened, 10)
	for _, p := range opened {
		require.Less(t, p.X, 2)
	}
	for y := 0; y < 5; y++ {
		require.True(t, b.Revealed(0, y))
		require.True(t, b.Revealed(1, y))
		require.Greater(t, b.Value(1, y), 0)
		require.False(t, b.Revealed(3, y))
	}
	require.Equal(t, Playing, b.Outcome())

	// Opening the right region completes the board.
	b.Reveal(4, 4)
	require.Equal(t, Won, b.Outcome())
	require.Equal(t, 25-5, b.RevealedCount())
}

func TestRevealNumberedCellOpensOnlyItself(t *testing.T) {
	b, err := NewBoardFromLayout(4, []Point{{0, 0}})
	require.NoError(t, err)

	opened := b.Reveal(1, 1)
	require.Equal(t, []Point{{1, 1}}, opened)
	require.Equal(t, 1, b.Value(1, 1))
}

func TestRevealMineLosesAndOpensBoard(t *testing.T) {
	b, err := NewBoardFromLayout(4, []Point{{0, 0}, {3, 3}})
	require.NoError(t, err)
	require.True(t, b.ToggleFlag(3, 3))

	b.Reveal(0, 0)
	require.Equal(t, Lost, b.Outcome())
	require.Equal(t, 16, b.RevealedCount())
	require.False(t, b.Flagged(3, 3))

	require.Nil(t, b.Reveal(1, 1))
	require.False(t, b.ToggleFlag(1, 1))
}

func TestFlagAndRevealAreExclusive(t *testing.T) {
	b, err := NewBoardFromLayout(4, []Point{{0, 0}})
	require.NoError(t, err)

	require.True(t, b.ToggleFlag(2, 2))
	require.Nil(t, b.Reveal(2, 2))
	require.False(t, b.Revealed(2, 2))
	require.Equal(t, 0, b.MinesRemaining())

	require.True(t, b.ToggleFlag(2, 2))
	require.NotEmpty(t, b.Reveal(2, 2))
	require.False(t, b.ToggleFlag(2, 2))
	require.False(t, b.Flagged(2, 2))
}

func TestFloodSkipsFlaggedCells(t *testing.T) {
	b, err := NewBoardFromLayout(4, []Point{{3, 3}})
	require.NoError(t, err)
	require.True(t, b.ToggleFlag(0, 3))

	b.Reveal(0, 0)
	require.False(t, b.Revealed(0, 3))
	require.True(t, b.Flagged(0, 3))
	require.Equal(t, Playing, b.Outcome())

	require.True(t, b.ToggleFlag(0, 3))
	b.Reveal(0, 3)
	require.Equal(t, Won, b.Outcome())
}

func TestWinIffAllSafeCellsRevealed(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	for round := 0; round < 50; round++ {
		b, err := NewBoard(6, 5, rng)
		require.NoError(t, err)

		for y := 0; y < 6 && !b.Over(); y++ {
			for x := 0; x < 6 && !b.Over(); x++ {
				if b.Value(x, y) == Mine {
					continue
				}
				b.Reveal(x, y)
				allSafe := b.RevealedCount() == 36-5
				require.Equal(t, allSafe, b.Outcome() == Won)
			}
		}
		require.Equal(t, Won, b.Outcome())
	}
}

func TestRevealOutOfBoundsIsNoop(t *testing.T) {
	b, err := NewBoardFromLayout(3, []Point{{1, 1}})
	require.NoError(t, err)
	require.Nil(t, b.Reveal(-1, 0))
	require.Nil(t, b.Reveal(0, 3))
	require.False(t, b.ToggleFlag(3, 3))
}
