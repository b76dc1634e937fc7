package minesweeper

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Mine marks a mined cell in the value grid.
const Mine = -1

const (
	DefaultSize  = 10
	DefaultMines = 10
)

// ErrInvalidConfig is returned for boards that cannot be generated.
var ErrInvalidConfig = errors.New("invalid board configuration")

// Point is a cell coordinate, X is the column and Y the row.
type Point struct {
	X, Y int
}

// Outcome is the lifecycle state of a board.
type Outcome int

const (
	Playing Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "playing"
	}
}

// Board is a square minesweeper grid. It is not safe for concurrent use.
type Board struct {
	size     int
	mines    int
	values   []int
	revealed map[Point]struct{}
	flagged  map[Point]struct{}
	outcome  Outcome
}

// NewBoard places mines uniformly at random, rejecting duplicate coordinates,
// then computes every neighbour count in one pass.
func NewBoard(size, mines int, rng *rand.Rand) (*Board, error) {
	if err := validate(size, mines); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	b := newEmptyBoard(size, mines)
	placed := 0
	for placed < mines {
		idx := rng.IntN(size * size)
		if b.values[idx] == Mine {
			continue
		}
		b.values[idx] = Mine
		placed++
	}
	b.countNeighbours()
	return b, nil
}

// NewBoardFromLayout builds a board with mines at exactly the given points.
func NewBoardFromLayout(size int, mines []Point) (*Board, error) {
	if err := validate(size, len(mines)); err != nil {
		return nil, err
	}

	b := newEmptyBoard(size, len(mines))
	for _, p := range mines {
		if !b.InBounds(p.X, p.Y) {
			return nil, fmt.Errorf("%w: mine %v outside %dx%d board", ErrInvalidConfig, p, size, size)
		}
		idx := b.index(p)
		if b.values[idx] == Mine {
			return nil, fmt.Errorf("%w: duplicate mine %v", ErrInvalidConfig, p)
		}
		b.values[idx] = Mine
	}
	b.countNeighbours()
	return b, nil
}

func validate(size, mines int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d", ErrInvalidConfig, size)
	}
	if mines < 0 || mines >= size*size {
		return fmt.Errorf("%w: %d mines on a %dx%d board", ErrInvalidConfig, mines, size, size)
	}
	return nil
}

func newEmptyBoard(size, mines int) *Board {
	return &Board{
		size:     size,
		mines:    mines,
		values:   make([]int, size*size),
		revealed: make(map[Point]struct{}),
		flagged:  make(map[Point]struct{}),
	}
}

func (b *Board) countNeighbours() {
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			p := Point{x, y}
			if b.values[b.index(p)] == Mine {
				continue
			}
			count := 0
			b.eachNeighbour(p, func(n Point) {
				if b.values[b.index(n)] == Mine {
					count++
				}
			})
			b.values[b.index(p)] = count
		}
	}
}

func (b *Board) eachNeighbour(p Point, fn func(Point)) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := p.X+dx, p.Y+dy
			if b.InBounds(nx, ny) {
				fn(Point{nx, ny})
			}
		}
	}
}

func (b *Board) index(p Point) int {
	return p.Y*b.size + p.X
}

// Size is the side length of the grid.
func (b *Board) Size() int { return b.size }

// Mines is the number of mined cells.
func (b *Board) Mines() int { return b.mines }

// Outcome reports whether the board is still in play.
func (b *Board) Outcome() Outcome { return b.outcome }

// Over reports whether a terminal state was reached.
func (b *Board) Over() bool { return b.outcome != Playing }

// InBounds reports whether (x, y) lies on the grid.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.size && y >= 0 && y < b.size
}

// Value returns Mine or the neighbour-mine count of the cell.
func (b *Board) Value(x, y int) int {
	return b.values[b.index(Point{x, y})]
}

// Revealed reports whether the cell has been opened.
func (b *Board) Revealed(x, y int) bool {
	_, ok := b.revealed[Point{x, y}]
	return ok
}

// Flagged reports whether the cell carries a flag.
func (b *Board) Flagged(x, y int) bool {
	_, ok := b.flagged[Point{x, y}]
	return ok
}

// RevealedCount is the size of the revealed set.
func (b *Board) RevealedCount() int { return len(b.revealed) }

// MinesRemaining is the mine counter shown to the player.
func (b *Board) MinesRemaining() int { return b.mines - len(b.flagged) }

// CanReveal reports whether Reveal(x, y) would change the board.
func (b *Board) CanReveal(x, y int) bool {
	return !b.Over() && b.InBounds(x, y) && !b.Flagged(x, y) && !b.Revealed(x, y)
}

// Reveal opens a cell and returns every cell that became revealed, in
// the order they were opened. Opening a zero cell floods its connected zero
// region plus the numbered border. Opening a mine loses the game and
// reveals the whole board.
func (b *Board) Reveal(x, y int) []Point {
	if !b.CanReveal(x, y) {
		return nil
	}

	start := Point{x, y}
	if b.values[b.index(start)] == Mine {
		b.outcome = Lost
		return b.revealAll()
	}

	var opened []Point
	stack := []Point{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, done := b.revealed[p]; done {
			continue
		}
		if _, flag := b.flagged[p]; flag {
			continue
		}
		b.revealed[p] = struct{}{}
		opened = append(opened, p)

		if b.values[b.index(p)] != 0 {
			continue
		}
		b.eachNeighbour(p, func(n Point) {
			if _, done := b.revealed[n]; !done {
				stack = append(stack, n)
			}
		})
	}

	if len(b.revealed) == b.size*b.size-b.mines {
		b.outcome = Won
	}
	return opened
}

// revealAll opens every cell. Flags are dropped so revealed and flagged stay disjoint.
func (b *Board) revealAll() []Point {
	var opened []Point
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			p := Point{x, y}
			if _, done := b.revealed[p]; done {
				continue
			}
			delete(b.flagged, p)
			b.revealed[p] = struct{}{}
			opened = append(opened, p)
		}
	}
	return opened
}

// ToggleFlag flips the flag on an unrevealed cell. It returns false when the
// call had no effect.
func (b *Board) ToggleFlag(x, y int) bool {
	if b.Over() || !b.InBounds(x, y) || b.Revealed(x, y) {
		return false
	}
	p := Point{x, y}
	if _, ok := b.flagged[p]; ok {
		delete(b.flagged, p)
	} else {
		b.flagged[p] = struct{}{}
	}
	return true
}
