package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minechat/internal/chat"
	"github.com/vovakirdan/minechat/internal/config"
	"github.com/vovakirdan/minechat/internal/eventloop"
	"github.com/vovakirdan/minechat/internal/minesweeper"
	"github.com/vovakirdan/minechat/internal/session"
	"github.com/vovakirdan/minechat/internal/store"
	"github.com/vovakirdan/minechat/internal/store/sqlite"
	"github.com/vovakirdan/minechat/internal/transport/ws"
	"github.com/vovakirdan/minechat/internal/ui"
)

const (
	loopCapacity    = 256
	shutdownTimeout = 2 * time.Second
)

// IO is the terminal the client talks to.
type IO struct {
	In   io.Reader
	Out  io.Writer
	ANSI bool
}

// App wires the event loop, the chat session and the game together.
type App struct {
	loop   *eventloop.Loop
	client *Client
	sess   *session.Session
	store  store.KV
	in     io.Reader
	preset string
	log    *zerolog.Logger

	quitOnce sync.Once
	quit     chan struct{}
}

// Option customises App construction.
type Option func(*options)

type options struct {
	clock  clock.Clock
	dialer session.Dialer
	preset string
}

// WithClock replaces the wall clock used for timers and timestamps.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithDialer replaces the websocket dialer.
func WithDialer(d session.Dialer) Option { return func(o *options) { o.dialer = d } }

// WithUser logs in as user on start instead of restoring the saved identity.
func WithUser(user string) Option { return func(o *options) { o.preset = user } }

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger, stdio IO, opts ...Option) (*App, error) {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialer == nil {
		o.dialer = wsDialer(ws.Dialer{Timeout: cfg.DialTimeout})
	}

	st, err := sqlite.New(cfg.IdentityPath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("identity_path", cfg.IdentityPath).Msg("identity store initialized")

	loop := eventloop.New(loopCapacity)
	identity := session.NewIdentity(st)

	term := ui.NewTerminal(ui.TerminalOptions{Out: stdio.Out, ANSI: stdio.ANSI, Logger: logger})
	feed := chat.NewFeed(term, identity, cfg.PresenceMarkers, logger)
	presence := &chat.Presence{}
	router := chat.NewRouter(feed, presence, term, identity, logger)

	sess := session.New(session.Options{
		URL:            cfg.ServerURL,
		ReconnectDelay: cfg.ReconnectDelay,
		SendBuffer:     cfg.SendBuffer,
		TimeFormat:     cfg.TimeFormat,
		Dialer:         o.dialer,
		Identity:       identity,
		Handler:        router,
		Notifier:       feed,
		Clock:          o.clock,
		Post:           loop.Post,
		OnStateChange:  func(s session.State) { term.SetStatus(s.String()) },
		ExpectedClose:  ws.IsNormalClose,
		Logger:         logger,
	})

	client := &Client{
		identity:   identity,
		session:    sess,
		feed:       feed,
		outbox:     chat.NewOutbox(sess, feed, identity, logger),
		term:       term,
		composer:   ui.NewComposer(0),
		log:        logger,
		boardSize:  cfg.BoardSize,
		boardMines: cfg.BoardMines,
	}
	client.game = minesweeper.NewGame(minesweeper.GameOptions{
		Clock:  o.clock,
		Logger: logger,
		Post:   loop.Post,
		OnTick: client.Tick,
	})
	client.game.Subscribe(chat.NewResultEmitter(sess, identity, logger).EchoTo(feed))

	if stdio.In == nil {
		stdio.In = eofReader{}
	}

	return &App{
		loop:   loop,
		client: client,
		sess:   sess,
		store:  st,
		in:     stdio.In,
		preset: o.preset,
		log:    logger,
		quit:   make(chan struct{}),
	}, nil
}

// Run starts the client and blocks until context cancellation, /quit or end
// of input.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go a.loop.Run(loopCtx)

	var startErr error
	if err := a.loop.Do(ctx, func() { startErr = a.client.Start(ctx, a.preset) }); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}

	go a.readInput(ctx)

	select {
	case <-ctx.Done():
		a.log.Info().Msg("interrupted")
	case <-a.quit:
		a.log.Info().Msg("quit requested")
	}

	a.shutdown(loopCtx)
	return nil
}

func (a *App) readInput(ctx context.Context) {
	scanner := bufio.NewScanner(a.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		a.loop.Post(func() {
			if a.client.HandleLine(ctx, line) {
				a.stop()
			}
		})
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn().Err(err).Msg("read input")
	}
	a.loop.Post(a.stop)
}

func (a *App) stop() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// shutdown closes the channel and waits briefly for the close to settle.
func (a *App) shutdown(loopCtx context.Context) {
	ctx, cancel := context.WithTimeout(loopCtx, shutdownTimeout)
	defer cancel()

	if err := a.loop.Do(ctx, a.client.Shutdown); err != nil {
		a.log.Warn().Err(err).Msg("shutdown session")
		return
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		var state session.State
		if err := a.loop.Do(ctx, func() { state = a.sess.State() }); err != nil {
			a.log.Warn().Err(err).Msg("session did not close in time")
			return
		}
		if state == session.Disconnected {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			a.log.Warn().Msg("session did not close in time")
			return
		}
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

func wsDialer(d ws.Dialer) session.Dialer {
	return session.DialerFunc(func(ctx context.Context, url string) (session.Conn, error) {
		conn, err := d.Dial(ctx, url)
		if err != nil {
			return nil, err
		}
		return conn, nil
	})
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
