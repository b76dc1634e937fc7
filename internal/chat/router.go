package chat

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minechat/internal/proto"
)

// Router classifies inbound envelopes.
type Router struct {
	feed     *Feed
	presence *Presence
	display  Display
	self     Self
	log      *zerolog.Logger
}

// NewRouter wires a router to the display path.
func NewRouter(feed *Feed, presence *Presence, display Display, self Self, logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{
		feed:     feed,
		presence: presence,
		display:  display,
		self:     self,
		log:      logger,
	}
}

// HandleEnvelope routes one inbound envelope.
func (r *Router) HandleEnvelope(env proto.Envelope) {
	switch env.Kind {
	case proto.KindRoster:
		r.presence.Replace(env.Roster)
		r.display.Roster(r.presence.Entries(), r.self.Username())
	case proto.KindImage:
		if env.Sender == r.self.Username() && r.feed.UploadPending() {
			r.feed.CancelUpload()
		}
		r.feed.Display(env)
	case proto.KindChat, proto.KindSystem:
		r.feed.Display(env)
	default:
		r.log.Debug().Str("kind", string(env.Kind)).Msg("unknown envelope kind dropped")
	}
}
