package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minechat/internal/proto"
)

// Notices synthesized locally on connectivity changes.
const (
	NoticeConnected    = "connected to chat"
	NoticeReconnecting = "disconnected, attempting to reconnect…"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultSendBuffer     = 32
	DefaultTimeFormat     = "15:04:05"
)

// ErrTransportDropped wraps the cause of an unexpected connection loss.
// It is logged, never returned to callers.
var ErrTransportDropped = errors.New("transport dropped")

// Conn is an established transport carrying one envelope per frame.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) { return f(ctx, url) }

// Handler receives decoded inbound envelopes.
type Handler interface {
	HandleEnvelope(proto.Envelope)
}

// Notifier receives locally synthesized system notices.
type Notifier interface {
	Notice(text string)
}

// Options configures a Session.
type Options struct {
	URL            string
	ReconnectDelay time.Duration
	SendBuffer     int
	TimeFormat     string

	Dialer   Dialer
	Identity *Identity
	Handler  Handler
	Notifier Notifier
	Clock    clock.Clock

	// Post schedules work onto the event loop that owns the session.
	Post          func(func())
	// OnStateChange observes lifecycle transitions. It runs on the event loop.
	OnStateChange func(State)
	// ExpectedClose reports whether a close cause is an orderly shutdown by
	// the peer. Such drops are logged at info instead of warn.
	ExpectedClose func(error) bool
	Logger        *zerolog.Logger
}

// Session maintains the channel to the chat server. All methods must be
// called from the owning event loop.
type Session struct {
	url            string
	reconnectDelay time.Duration
	sendBuffer     int
	timeFormat     string

	dialer   Dialer
	identity *Identity
	handler  Handler
	notifier Notifier
	clock    clock.Clock
	post     func(func())
	onState  func(State)
	expected func(error) bool
	log      *zerolog.Logger

	state State
	gen   uint64
	link  *link

	retry    *clock.Timer
	retrySeq uint64
}

// link is one transport attempt. It is replaced, never reused, on reconnect.
type link struct {
	gen    uint64
	conn   Conn
	out    chan []byte
	cancel context.CancelFunc
}

// New constructs a disconnected session.
func New(opts Options) *Session {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Identity == nil {
		opts.Identity = NewIdentity(nil)
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	return &Session{
		url:            opts.URL,
		reconnectDelay: opts.ReconnectDelay,
		sendBuffer:     opts.SendBuffer,
		timeFormat:     opts.TimeFormat,
		dialer:         opts.Dialer,
		identity:       opts.Identity,
		handler:        opts.Handler,
		notifier:       opts.Notifier,
		clock:          opts.Clock,
		post:           opts.Post,
		onState:        opts.OnStateChange,
		expected:       opts.ExpectedClose,
		log:            opts.Logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Identity returns the session context.
func (s *Session) Identity() *Identity { return s.identity }

// Now formats the current wall-clock time the way envelopes carry it.
func (s *Session) Now() string {
	return s.clock.Now().Format(s.timeFormat)
}

// Connect starts a new transport, superseding any existing one. Events from
// the superseded transport are never delivered afterwards.
func (s *Session) Connect() error {
	if !s.identity.LoggedIn() {
		return ErrNoIdentity
	}

	s.stopRetry()
	s.detach()

	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{
		gen:    s.gen,
		out:    make(chan []byte, s.sendBuffer),
		cancel: cancel,
	}
	s.link = l
	s.setState(Connecting)

	go s.run(ctx, l)
	return nil
}

// Send writes env as exactly one frame. It is a no-op unless the session is Open.
func (s *Session) Send(env proto.Envelope) bool {
	if s.state != Open || s.link == nil || s.link.conn == nil {
		s.log.Debug().Str("state", s.state.String()).Str("kind", string(env.Kind)).Msg("send dropped, channel not open")
		return false
	}

	data, err := proto.Encode(env)
	if err != nil {
		s.log.Error().Err(err).Msg("encode outbound envelope")
		return false
	}

	select {
	case s.link.out <- data:
		return true
	default:
		s.log.Warn().Int("buffer", s.sendBuffer).Msg("send buffer full, frame dropped")
		return false
	}
}

// Close tears the session down without scheduling a reconnect and cancels
// any reconnect already pending.
func (s *Session) Close() {
	s.stopRetry()

	l := s.link
	if l == nil {
		s.setState(Disconnected)
		return
	}

	s.setState(Closing)
	if l.conn == nil {
		l.cancel()
		return
	}
	conn := l.conn
	go func() {
		if err := conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close transport")
		}
		l.cancel()
	}()
}

// detach cancels the current link so nothing it produces is observed again.
func (s *Session) detach() {
	if s.link == nil {
		return
	}
	s.link.cancel()
	s.link = nil
	s.gen++
}

func (s *Session) setState(next State) {
	if s.state == next {
		return
	}
	s.log.Debug().Str("from", s.state.String()).Str("to", next.String()).Uint64("generation", s.gen).Msg("session state")
	s.state = next
	if s.onState != nil {
		s.onState(next)
	}
}

// run owns the transport goroutines for one link.
func (s *Session) run(ctx context.Context, l *link) {
	conn, err := s.dialer.Dial(ctx, s.url)
	if err != nil {
		l.cancel()
		s.post(func() { s.handleClose(l.gen, err) })
		return
	}
	s.post(func() { s.handleOpen(l, conn) })

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.readLoop(ctx, l.gen, conn)
	}()
	go func() {
		errCh <- s.writeLoop(ctx, conn, l.out)
	}()

	err = <-errCh
	l.cancel() // stop the other goroutine
	<-errCh
	_ = conn.Close()

	s.post(func() { s.handleClose(l.gen, err) })
}

func (s *Session) readLoop(ctx context.Context, gen uint64, conn Conn) error {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		s.post(func() { s.handleFrame(gen, data) })
	}
}

func (s *Session) writeLoop(ctx context.Context, conn Conn, out <-chan []byte) error {
	for {
		select {
		case data := <-out:
			if err := conn.Write(ctx, data); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) handleOpen(l *link, conn Conn) {
	if l.gen != s.gen || s.link != l {
		return
	}
	l.conn = conn
	if s.state == Closing {
		// Close raced the dial; finish the teardown now that a handle exists.
		go func() {
			_ = conn.Close()
			l.cancel()
		}()
		return
	}
	s.setState(Open)
	s.log.Info().Str("url", s.url).Str("user", s.identity.Username()).Msg("connected")

	s.Send(proto.Envelope{
		Kind:      proto.KindChat,
		Sender:    s.identity.Username(),
		Body:      "",
		Timestamp: s.Now(),
	})
	s.notify(NoticeConnected)
}

func (s *Session) handleFrame(gen uint64, data []byte) {
	if gen != s.gen {
		return
	}
	env, err := proto.Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping inbound frame")
		return
	}
	if s.handler != nil {
		s.handler.HandleEnvelope(env)
	}
}

func (s *Session) handleClose(gen uint64, cause error) {
	if gen != s.gen {
		return
	}
	if s.link != nil {
		s.link.cancel()
		s.link = nil
	}

	wasClosing := s.state == Closing
	s.setState(Disconnected)
	if wasClosing {
		s.log.Info().Msg("session closed")
		return
	}

	ev := s.log.Warn()
	if s.expected != nil && s.expected(cause) {
		ev = s.log.Info()
	}
	ev.Err(fmt.Errorf("%w: %v", ErrTransportDropped, cause)).Dur("retry_in", s.reconnectDelay).Msg("connection lost")
	s.notify(NoticeReconnecting)
	s.scheduleRetry()
}

func (s *Session) scheduleRetry() {
	s.stopRetry()
	seq := s.retrySeq
	s.retry = s.clock.AfterFunc(s.reconnectDelay, func() {
		s.post(func() { s.fireRetry(seq) })
	})
}

func (s *Session) fireRetry(seq uint64) {
	if seq != s.retrySeq || s.retry == nil {
		return
	}
	s.retry = nil
	if err := s.Connect(); err != nil {
		s.log.Info().Err(err).Msg("reconnect skipped")
	}
}

func (s *Session) stopRetry() {
	s.retrySeq++
	if s.retry == nil {
		return
	}
	s.retry.Stop()
	s.retry = nil
}

// RetryPending reports whether a reconnect is scheduled.
func (s *Session) RetryPending() bool { return s.retry != nil }

func (s *Session) notify(text string) {
	if s.notifier != nil {
		s.notifier.Notice(text)
	}
}
