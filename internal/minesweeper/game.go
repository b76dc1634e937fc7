package minesweeper

import (
	"math/rand/v2"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Result describes a finished game.
type Result struct {
	Outcome Outcome
	Elapsed int // whole seconds
}

// Listener is notified once per game when it reaches a terminal state.
type Listener interface {
	GameFinished(Result)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Result)

func (f ListenerFunc) GameFinished(r Result) { f(r) }

// GameOptions configures a Game.
type GameOptions struct {
	Clock  clock.Clock
	Rand   *rand.Rand
	Logger *zerolog.Logger
	// Post schedules clock ticks onto the owner's event loop.
	Post func(func())
	// OnTick receives elapsed whole seconds once per second while the clock runs.
	OnTick func(elapsed int)
}

// Game owns the current board and the game clock.
type Game struct {
	clock  clock.Clock
	rng    *rand.Rand
	log    *zerolog.Logger
	post   func(func())
	onTick func(int)

	listeners []Listener

	board    *Board
	started  time.Time
	finished bool
	final    int

	ticker   *clock.Ticker
	stopTick chan struct{}
	tickGen  uint64
}

// NewGame constructs a game with no board dealt yet.
func NewGame(opts GameOptions) *Game {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	return &Game{
		clock:  opts.Clock,
		rng:    opts.Rand,
		log:    opts.Logger,
		post:   opts.Post,
		onTick: opts.OnTick,
	}
}

// Subscribe registers a listener for terminal results.
func (g *Game) Subscribe(l Listener) {
	g.listeners = append(g.listeners, l)
}

// Start deals a fresh board, discarding any game in progress.
func (g *Game) Start(size, mines int) error {
	board, err := NewBoard(size, mines, g.rng)
	if err != nil {
		return err
	}
	g.StartWithBoard(board)
	return nil
}

// StartWithBoard installs a prepared board, discarding any game in progress.
func (g *Game) StartWithBoard(board *Board) {
	g.stopClock()
	g.board = board
	g.started = time.Time{}
	g.finished = false
	g.final = 0
	g.log.Debug().Int("size", board.Size()).Int("mines", board.Mines()).Msg("new game")
}

// Close discards the board and stops the clock.
func (g *Game) Close() {
	g.stopClock()
	g.board = nil
	g.started = time.Time{}
}

// Board returns the current board, nil when no game is active.
func (g *Game) Board() *Board { return g.board }

// Running reports whether the clock is ticking.
func (g *Game) Running() bool { return g.ticker != nil }

// Elapsed returns whole seconds since the first reveal, frozen once the game ends.
func (g *Game) Elapsed() int {
	if g.finished {
		return g.final
	}
	if g.started.IsZero() {
		return 0
	}
	return int(g.clock.Since(g.started) / time.Second)
}

// Reveal opens a cell. The first effective reveal starts the clock.
func (g *Game) Reveal(x, y int) []Point {
	if g.board == nil || !g.board.CanReveal(x, y) {
		return nil
	}
	if g.started.IsZero() {
		g.startClock()
	}
	opened := g.board.Reveal(x, y)
	if g.board.Over() {
		g.finish()
	}
	return opened
}

// ToggleFlag flips a flag. It never touches the clock.
func (g *Game) ToggleFlag(x, y int) bool {
	if g.board == nil {
		return false
	}
	return g.board.ToggleFlag(x, y)
}

func (g *Game) finish() {
	if g.finished {
		return
	}
	elapsed := g.Elapsed()
	g.finished = true
	g.final = elapsed
	g.stopClock()

	result := Result{Outcome: g.board.Outcome(), Elapsed: elapsed}
	g.log.Info().Str("outcome", result.Outcome.String()).Int("elapsed", elapsed).Msg("game finished")
	for _, l := range g.listeners {
		l.GameFinished(result)
	}
}

func (g *Game) startClock() {
	g.stopClock()
	g.started = g.clock.Now()
	g.tickGen++

	gen := g.tickGen
	ticker := g.clock.Ticker(time.Second)
	stop := make(chan struct{})
	g.ticker = ticker
	g.stopTick = stop

	go func() {
		for {
			select {
			case <-ticker.C:
				g.post(func() { g.tick(gen) })
			case <-stop:
				return
			}
		}
	}()
}

func (g *Game) tick(gen uint64) {
	if gen != g.tickGen || g.ticker == nil {
		return
	}
	if g.onTick != nil {
		g.onTick(g.Elapsed())
	}
}

func (g *Game) stopClock() {
	if g.ticker == nil {
		return
	}
	g.ticker.Stop()
	close(g.stopTick)
	g.ticker = nil
	g.stopTick = nil
	g.tickGen++
}
