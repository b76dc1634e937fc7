package chat

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/minechat/internal/proto"
)

// ErrUploadFailed is returned when an image cannot be produced or loaded.
var ErrUploadFailed = errors.New("image upload failed")

const (
	// ImageFailedText replaces an image that cannot be loaded.
	ImageFailedText = "[image failed to load]"
	// UploadingText is the placeholder shown while an image is in flight.
	UploadingText = "uploading image…"
)

// DefaultPresenceMarkers are the substrings that make a system line visible.
// The first two are what the relay server emits for joins and leaves.
var DefaultPresenceMarkers = []string{"加入", "离开", "joined", "left"}

// Feed is the display path. It applies the visibility filter and owns the
// pending-upload placeholder.
type Feed struct {
	display Display
	self    Self
	markers []string
	log     *zerolog.Logger

	pending EntryID
}

// NewFeed builds a feed. Empty markers fall back to DefaultPresenceMarkers.
func NewFeed(display Display, self Self, markers []string, logger *zerolog.Logger) *Feed {
	if len(markers) == 0 {
		markers = DefaultPresenceMarkers
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Feed{
		display: display,
		self:    self,
		markers: markers,
		log:     logger,
	}
}

// Visible reports whether env passes the display filter: chat and image are
// always shown, system lines only when they mention a join or leave.
func (f *Feed) Visible(env proto.Envelope) bool {
	switch env.Kind {
	case proto.KindChat, proto.KindImage:
		return true
	case proto.KindSystem:
		return lo.SomeBy(f.markers, func(marker string) bool {
			return strings.Contains(env.Body, marker)
		})
	default:
		return false
	}
}

// Display renders env if it passes the filter.
func (f *Feed) Display(env proto.Envelope) (EntryID, bool) {
	if !f.Visible(env) {
		f.log.Debug().Str("kind", string(env.Kind)).Str("body", env.Body).Msg("filtered from display")
		return "", false
	}

	entry := Entry{
		ID:        EntryID(uuid.NewString()),
		Sender:    env.Sender,
		Text:      env.Body,
		Timestamp: env.Timestamp,
		Self:      env.Sender != "" && env.Sender == f.self.Username(),
	}

	switch env.Kind {
	case proto.KindSystem:
		entry.Kind = EntrySystem
	case proto.KindImage:
		entry.Kind = EntryImage
		if err := checkImage(env.Body); err != nil {
			f.log.Warn().Err(err).Str("sender", env.Sender).Msg("image not loadable")
			entry.ImageFailed = true
			entry.Text = ImageFailedText
		}
	default:
		entry.Kind = EntryChat
		if outcome, ok := ParseResult(env.Body); ok {
			entry.Mark = markFor(outcome)
		}
	}

	f.display.Append(entry)
	return entry.ID, true
}

// Notice injects a locally synthesized system line. It goes through the same
// filter as server notices.
func (f *Feed) Notice(text string) {
	f.log.Info().Str("notice", text).Msg("system notice")
	f.Display(proto.Envelope{Kind: proto.KindSystem, Sender: "System", Body: text})
}

// BeginUpload shows the uploading placeholder, replacing any previous one.
func (f *Feed) BeginUpload(timestamp string) EntryID {
	f.CancelUpload()

	id := EntryID(uuid.NewString())
	f.display.Append(Entry{
		ID:        id,
		Kind:      EntryPlaceholder,
		Sender:    "System",
		Text:      UploadingText,
		Timestamp: timestamp,
	})
	f.pending = id
	return id
}

// UploadPending reports whether a placeholder is visible.
func (f *Feed) UploadPending() bool { return f.pending != "" }

// CancelUpload removes the placeholder if there is one.
func (f *Feed) CancelUpload() {
	if f.pending == "" {
		return
	}
	f.display.Remove(f.pending)
	f.pending = ""
}

// Clear empties the display and forgets the placeholder.
func (f *Feed) Clear() {
	f.pending = ""
	f.display.Clear()
}

// checkImage verifies that an image body can be loaded: either a base64 data
// URL with an image media type or a server-relative or absolute URL.
func checkImage(body string) error {
	if body == "" {
		return fmt.Errorf("%w: empty body", ErrUploadFailed)
	}
	if strings.HasPrefix(body, "data:") {
		header, payload, ok := strings.Cut(body, ",")
		if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return fmt.Errorf("%w: unsupported data url", ErrUploadFailed)
		}
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		return nil
	}
	u, err := url.Parse(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if u.Path == "" || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: unsupported location %q", ErrUploadFailed, body)
	}
	return nil
}
