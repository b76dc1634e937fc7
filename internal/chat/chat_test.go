package chat

import (
	"github.com/vovakirdan/minechat/internal/proto"
)

type fakeDisplay struct {
	entries []Entry
	removed []EntryID
	roster  []proto.PresenceInfo
	rosterN int
	cleared int
}

func (d *fakeDisplay) Append(e Entry) { d.entries = append(d.entries, e) }

func (d *fakeDisplay) Remove(id EntryID) {
	d.removed = append(d.removed, id)
	for i, e := range d.entries {
		if e.ID == id {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

func (d *fakeDisplay) Clear() {
	d.entries = nil
	d.cleared++
}

func (d *fakeDisplay) Roster(entries []proto.PresenceInfo, _ string) {
	d.roster = entries
	d.rosterN++
}

func (d *fakeDisplay) count(kind EntryKind) int {
	n := 0
	for _, e := range d.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type user string

func (u user) Username() string { return string(u) }

type fakeSender struct {
	open bool
	sent []proto.Envelope
}

func (s *fakeSender) Send(env proto.Envelope) bool {
	if !s.open {
		return false
	}
	s.sent = append(s.sent, env)
	return true
}

func (s *fakeSender) Now() string { return "12:00:00" }
