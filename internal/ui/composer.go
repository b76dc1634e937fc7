package ui

import "strings"

// Key is one input event for the compose box.
type Key struct {
	Rune      rune
	Enter     bool
	Shift     bool
	Backspace bool
}

// Composer holds the text being typed. Enter submits; Shift+Enter inserts a
// line break.
type Composer struct {
	data []rune
}

// NewComposer returns a composer with room for capacity runes.
func NewComposer(capacity int) *Composer {
	if capacity <= 0 {
		capacity = 128
	}
	return &Composer{data: make([]rune, 0, capacity)}
}

// Press applies a key. It returns the drained text and true on a plain Enter.
func (c *Composer) Press(k Key) (string, bool) {
	switch {
	case k.Enter && k.Shift:
		c.data = append(c.data, '\n')
	case k.Enter:
		return c.Drain(), true
	case k.Backspace:
		if n := len(c.data); n > 0 {
			c.data = c.data[:n-1]
		}
	case k.Rune != 0:
		c.data = append(c.data, k.Rune)
	}
	return "", false
}

// FeedLine replays a terminal line. A trailing backslash stands for
// Shift+Enter since line-mode terminals cannot report the modifier.
func (c *Composer) FeedLine(line string) (string, bool) {
	shift := strings.HasSuffix(line, `\`)
	if shift {
		line = strings.TrimSuffix(line, `\`)
	}
	for _, r := range line {
		c.Press(Key{Rune: r})
	}
	return c.Press(Key{Enter: true, Shift: shift})
}

// Snapshot returns the pending text without clearing it.
func (c *Composer) Snapshot() string { return string(c.data) }

// Drain returns the pending text and clears it.
func (c *Composer) Drain() string {
	text := string(c.data)
	c.data = c.data[:0]
	return text
}

// Reset discards the pending text.
func (c *Composer) Reset() { c.data = c.data[:0] }
