package minesweeper

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/minechat/internal/eventloop"
)

type recorder struct {
	results []Result
}

func (r *recorder) GameFinished(res Result) { r.results = append(r.results, res) }

func TestGameSingleMineScenario(t *testing.T) {
	mock := clock.NewMock()
	game := NewGame(GameOptions{Clock: mock})
	rec := &recorder{}
	game.Subscribe(rec)

	board, err := NewBoardFromLayout(3, []Point{{2, 2}})
	require.NoError(t, err)
	game.StartWithBoard(board)

	opened := game.Reveal(0, 0)
	require.Len(t, opened, 8)
	require.Len(t, rec.results, 1)
	require.Equal(t, Won, rec.results[0].Outcome)
	require.GreaterOrEqual(t, rec.results[0].Elapsed, 0)
	require.False(t, game.Running())
}

func TestGameClockStartsOnFirstReveal(t *testing.T) {
	mock := clock.NewMock()
	game := NewGame(GameOptions{Clock: mock})

	board, err := NewBoardFromLayout(4, []Point{{0, 0}, {3, 3}})
	require.NoError(t, err)
	game.StartWithBoard(board)
	require.False(t, game.Running())

	// Flags do not start the clock.
	require.True(t, game.ToggleFlag(0, 0))
	require.False(t, game.Running())

	// A reveal on a flagged cell is a no-op and does not start the clock either.
	require.Nil(t, game.Reveal(0, 0))
	require.False(t, game.Running())

	game.Reveal(1, 0)
	require.True(t, game.Running())
	game.Close()
	require.False(t, game.Running())
}

func TestGameLossReportsElapsedOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	loop := eventloop.New(16)
	go loop.Run(ctx)

	mock := clock.NewMock()
	ticks := make(chan int, 16)
	rec := &recorder{}

	board, err := NewBoardFromLayout(4, []Point{{0, 0}, {3, 3}})
	require.NoError(t, err)

	var game *Game
	require.NoError(t, loop.Do(ctx, func() {
		game = NewGame(GameOptions{
			Clock:  mock,
			Post:   loop.Post,
			OnTick: func(elapsed int) { ticks <- elapsed },
		})
		game.Subscribe(rec)
		game.StartWithBoard(board)
		game.Reveal(1, 0)
	}))

	mock.Add(time.Second)
	select {
	case elapsed := <-ticks:
		require.Equal(t, 1, elapsed)
	case <-ctx.Done():
		t.Fatal("no clock tick")
	}

	mock.Add(4 * time.Second)
	require.NoError(t, loop.Do(ctx, func() {
		game.Reveal(3, 3)
		game.Reveal(2, 2)
		game.ToggleFlag(1, 1)
	}))

	var results []Result
	require.NoError(t, loop.Do(ctx, func() { results = append(results, rec.results...) }))
	require.Len(t, results, 1)
	require.Equal(t, Lost, results[0].Outcome)
	require.Equal(t, 5, results[0].Elapsed)

	var running bool
	var revealed int
	require.NoError(t, loop.Do(ctx, func() {
		running = game.Running()
		revealed = game.Board().RevealedCount()
	}))
	require.False(t, running)
	require.Equal(t, 16, revealed)
}

func TestGameStartReplacesBoard(t *testing.T) {
	game := NewGame(GameOptions{Clock: clock.NewMock()})
	require.NoError(t, game.Start(DefaultSize, DefaultMines))
	first := game.Board()
	require.NoError(t, game.Start(5, 3))
	require.NotSame(t, first, game.Board())
	require.Equal(t, 5, game.Board().Size())
	require.Equal(t, 3, game.Board().MinesRemaining())

	require.ErrorIs(t, game.Start(2, 4), ErrInvalidConfig)
}
