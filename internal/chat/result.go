package chat

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/minechat/internal/minesweeper"
	"github.com/vovakirdan/minechat/internal/proto"
)

// Phrases peers match on to recognise game results in plain chat text.
const (
	WinPhrase  = "🎉 cleared every mine in"
	LossPhrase = "💥 hit a mine after"
)

// FormatResult renders the chat body announcing a finished game.
func FormatResult(user string, r minesweeper.Result) string {
	phrase := LossPhrase
	if r.Outcome == minesweeper.Won {
		phrase = WinPhrase
	}
	return fmt.Sprintf("%s %s %d s", user, phrase, r.Elapsed)
}

// ParseResult recognises a result announcement by substring.
func ParseResult(body string) (minesweeper.Outcome, bool) {
	switch {
	case strings.Contains(body, WinPhrase):
		return minesweeper.Won, true
	case strings.Contains(body, LossPhrase):
		return minesweeper.Lost, true
	default:
		return minesweeper.Playing, false
	}
}

func markFor(o minesweeper.Outcome) Mark {
	switch o {
	case minesweeper.Won:
		return MarkWin
	case minesweeper.Lost:
		return MarkLoss
	default:
		return MarkNone
	}
}

// ResultEmitter broadcasts finished games into the chat.
type ResultEmitter struct {
	sender Sender
	self   Self
	echo   *Feed
	log    *zerolog.Logger
}

// NewResultEmitter builds an emitter.
func NewResultEmitter(sender Sender, self Self, logger *zerolog.Logger) *ResultEmitter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ResultEmitter{sender: sender, self: self, log: logger}
}

// EchoTo shows sent results in feed as well, like any other own chat line.
func (e *ResultEmitter) EchoTo(feed *Feed) *ResultEmitter {
	e.echo = feed
	return e
}

// GameFinished implements minesweeper.Listener.
func (e *ResultEmitter) GameFinished(r minesweeper.Result) {
	user := e.self.Username()
	env := proto.Envelope{
		Kind:      proto.KindChat,
		Sender:    user,
		Body:      FormatResult(user, r),
		Timestamp: e.sender.Now(),
	}
	if !e.sender.Send(env) {
		e.log.Warn().Str("outcome", r.Outcome.String()).Msg("game result not sent, channel closed")
		return
	}
	if e.echo != nil {
		e.echo.Display(env)
	}
}
