package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/minechat/internal/chat"
	"github.com/vovakirdan/minechat/internal/minesweeper"
	"github.com/vovakirdan/minechat/internal/proto"
)

const (
	seqCursorHome  = "\033[H"
	seqClearScreen = "\033[2J"
	seqReset       = "\033[0m"
	seqGreen       = "\033[32m"
	seqRed         = "\033[31m"
	seqDim         = "\033[2m"
)

const defaultHistory = 200

// View selects what the terminal shows.
type View int

const (
	ViewLogin View = iota
	ViewChat
)

// TerminalOptions configures a Terminal.
type TerminalOptions struct {
	Out io.Writer
	// ANSI enables screen clearing and colours. Without it every frame is
	// written plainly one after another.
	ANSI bool
	// History is how many feed entries a frame shows.
	History int
	Logger  *zerolog.Logger
}

// Terminal renders the client into a writer. It implements chat.Display.
// It must only be used from the event loop.
type Terminal struct {
	out     io.Writer
	ansi    bool
	history int
	log     *zerolog.Logger

	view    View
	user    string
	status  string
	entries []chat.Entry
	roster  []proto.PresenceInfo
	self    string

	showRoster bool
	board      *minesweeper.Board
	elapsed    int
	alert      string
	input      string

	frame string
}

var _ chat.Display = (*Terminal)(nil)

// NewTerminal builds a terminal renderer.
func NewTerminal(opts TerminalOptions) *Terminal {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.History <= 0 {
		opts.History = defaultHistory
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Terminal{
		out:     opts.Out,
		ansi:    opts.ANSI,
		history: opts.History,
		log:     opts.Logger,
	}
}

// Append adds a feed line; implements chat.Display.
func (t *Terminal) Append(e chat.Entry) {
	t.entries = append(t.entries, e)
	if over := len(t.entries) - t.history; over > 0 {
		t.entries = append(t.entries[:0], t.entries[over:]...)
	}
	t.Render()
}

// Remove drops the line with id; implements chat.Display.
func (t *Terminal) Remove(id chat.EntryID) {
	t.entries = lo.Reject(t.entries, func(e chat.Entry, _ int) bool { return e.ID == id })
	t.Render()
}

// Clear empties the feed; implements chat.Display.
func (t *Terminal) Clear() {
	t.entries = nil
	t.Render()
}

// Roster replaces the online list; implements chat.Display.
func (t *Terminal) Roster(entries []proto.PresenceInfo, self string) {
	t.roster = append([]proto.PresenceInfo(nil), entries...)
	t.self = self
	t.Render()
}

// Entries returns the entries currently held for display.
func (t *Terminal) Entries() []chat.Entry {
	return append([]chat.Entry(nil), t.entries...)
}

// ShowLogin switches to the login view and forgets the previous user's roster.
func (t *Terminal) ShowLogin() {
	t.view = ViewLogin
	t.user = ""
	t.roster = nil
	t.showRoster = false
	t.board = nil
	t.Render()
}

// ShowChat switches to the chat view for user.
func (t *Terminal) ShowChat(user string) {
	t.view = ViewChat
	t.user = user
	t.Render()
}

// View returns the active view.
func (t *Terminal) View() View { return t.view }

// SetStatus updates the connection state shown in the header.
func (t *Terminal) SetStatus(status string) {
	if t.status == status {
		return
	}
	t.status = status
	t.Render()
}

// ToggleRoster expands or collapses the online list.
func (t *Terminal) ToggleRoster() {
	t.showRoster = !t.showRoster
	t.Render()
}

// ShowBoard opens the game panel. A nil board closes it.
func (t *Terminal) ShowBoard(b *minesweeper.Board, elapsed int) {
	t.board = b
	t.elapsed = elapsed
	t.Render()
}

// BoardVisible reports whether the game panel is open.
func (t *Terminal) BoardVisible() bool { return t.board != nil }

// SetElapsed refreshes the game timer.
func (t *Terminal) SetElapsed(elapsed int) {
	if t.board == nil {
		return
	}
	t.elapsed = elapsed
	t.Render()
}

// Alert shows a one-line message above the prompt until replaced.
func (t *Terminal) Alert(text string) {
	t.alert = text
	t.Render()
}

// SetInput mirrors the pending compose text in the prompt.
func (t *Terminal) SetInput(text string) {
	t.input = text
	t.Render()
}

// Frame returns the last rendered frame without control sequences.
func (t *Terminal) Frame() string { return t.frame }

// Render redraws the whole screen.
func (t *Terminal) Render() {
	var sb strings.Builder
	if t.view == ViewLogin {
		t.renderLogin(&sb)
	} else {
		t.renderChat(&sb)
	}
	t.frame = sb.String()

	out := t.frame
	if t.ansi {
		out = seqClearScreen + seqCursorHome + strings.ReplaceAll(t.colourise(), "\n", "\r\n")
	}
	if _, err := io.WriteString(t.out, out); err != nil {
		t.log.Debug().Err(err).Msg("terminal write")
	}
}

func (t *Terminal) renderLogin(sb *strings.Builder) {
	sb.WriteString("minechat\n")
	sb.WriteString("enter a username to join the chat\n")
	t.renderFooter(sb)
}

func (t *Terminal) renderChat(sb *strings.Builder) {
	fmt.Fprintf(sb, "minechat · %s · %s · %d online\n", t.user, lo.Ternary(t.status == "", "offline", t.status), len(t.roster))
	sb.WriteString(rule)
	for _, e := range t.entries {
		sb.WriteString(formatEntry(e))
		sb.WriteString("\n")
	}
	if t.showRoster {
		sb.WriteString(rule)
		sb.WriteString(formatRoster(t.roster, t.self))
	}
	if t.board != nil {
		sb.WriteString(rule)
		sb.WriteString(RenderBoard(t.board, t.elapsed))
	}
	t.renderFooter(sb)
}

func (t *Terminal) renderFooter(sb *strings.Builder) {
	sb.WriteString(rule)
	if t.alert != "" {
		fmt.Fprintf(sb, "! %s\n", t.alert)
	}
	sb.WriteString("> ")
	sb.WriteString(strings.ReplaceAll(t.input, "\n", "\n  "))
}

// colourise highlights result lines in the current frame.
func (t *Terminal) colourise() string {
	var sb strings.Builder
	if t.view == ViewLogin {
		t.renderLogin(&sb)
		return sb.String()
	}
	frame := t.frame
	for _, e := range t.entries {
		line := formatEntry(e)
		switch {
		case e.Mark == chat.MarkWin:
			frame = strings.Replace(frame, line, seqGreen+line+seqReset, 1)
		case e.Mark == chat.MarkLoss:
			frame = strings.Replace(frame, line, seqRed+line+seqReset, 1)
		case e.Kind == chat.EntrySystem || e.Kind == chat.EntryPlaceholder:
			frame = strings.Replace(frame, line, seqDim+line+seqReset, 1)
		}
	}
	return frame
}

const rule = "────────────────────────────────\n"

func formatEntry(e chat.Entry) string {
	var head string
	if e.Timestamp != "" {
		head = "[" + e.Timestamp + "] "
	}

	var body string
	switch e.Kind {
	case chat.EntrySystem:
		body = "* " + e.Text
	case chat.EntryPlaceholder:
		body = "… " + e.Text
	case chat.EntryImage:
		body = senderLabel(e) + ": " + describeImage(e)
	default:
		body = senderLabel(e) + ": " + e.Text
		switch e.Mark {
		case chat.MarkWin:
			body += " 🏆"
		case chat.MarkLoss:
			body += " ☠"
		}
	}

	indent := "\n" + strings.Repeat(" ", len(head))
	return head + strings.ReplaceAll(body, "\n", indent)
}

func senderLabel(e chat.Entry) string {
	if e.Self {
		return e.Sender + " (you)"
	}
	return e.Sender
}

func describeImage(e chat.Entry) string {
	if e.ImageFailed {
		return e.Text
	}
	if header, payload, ok := strings.Cut(e.Text, ","); ok && strings.HasPrefix(header, "data:") {
		media := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		return fmt.Sprintf("[image %s, %d bytes]", media, len(payload)*3/4)
	}
	return "[image " + e.Text + "]"
}

func formatRoster(entries []proto.PresenceInfo, self string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "online (%d)\n", len(entries))
	for _, p := range entries {
		fmt.Fprintf(&sb, "  %s (%s)", p.Sender, p.Address)
		if p.Sender == self {
			sb.WriteString(" ← you")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
