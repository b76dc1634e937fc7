package chat

import "github.com/vovakirdan/minechat/internal/proto"

// Presence is the projection of the latest roster snapshot.
type Presence struct {
	entries []proto.PresenceInfo
}

// Replace swaps in a full snapshot. Order is kept and duplicates are allowed.
func (p *Presence) Replace(entries []proto.PresenceInfo) {
	p.entries = append([]proto.PresenceInfo(nil), entries...)
}

// Entries returns a copy of the snapshot.
func (p *Presence) Entries() []proto.PresenceInfo {
	return append([]proto.PresenceInfo(nil), p.entries...)
}
