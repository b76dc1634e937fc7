package chat

import "github.com/vovakirdan/minechat/internal/proto"

// EntryID identifies a rendered feed line so it can be removed later.
type EntryID string

// EntryKind tells the renderer how to draw an entry.
type EntryKind int

const (
	EntryChat EntryKind = iota
	EntrySystem
	EntryImage
	EntryPlaceholder
)

// Mark highlights game result lines.
type Mark int

const (
	MarkNone Mark = iota
	MarkWin
	MarkLoss
)

// Entry is one line handed to the display.
type Entry struct {
	ID        EntryID
	Kind      EntryKind
	Sender    string
	Text      string
	Timestamp string
	Self      bool
	Mark      Mark
	// ImageFailed is set when an image body could not be loaded; Text then
	// carries the inline placeholder.
	ImageFailed bool
}

// Display is the rendering sink.
type Display interface {
	Append(Entry)
	Remove(EntryID)
	Clear()
	Roster(entries []proto.PresenceInfo, self string)
}

// Self exposes the local username.
type Self interface {
	Username() string
}

// Sender writes envelopes to the channel.
type Sender interface {
	Send(proto.Envelope) bool
	Now() string
}
