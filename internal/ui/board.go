package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/minechat/internal/minesweeper"
)

// Cell glyphs.
const (
	glyphHidden = "#"
	glyphFlag   = "F"
	glyphMine   = "*"
	glyphEmpty  = "."
)

// RenderBoard draws the game panel: mine counter, timer and grid with
// column and row indices so cells can be addressed as "x y".
func RenderBoard(b *minesweeper.Board, elapsed int) string {
	if b == nil {
		return ""
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "💣 %d   ⏱️ %ds", b.MinesRemaining(), elapsed)
	switch b.Outcome() {
	case minesweeper.Won:
		sb.WriteString("   you win!")
	case minesweeper.Lost:
		sb.WriteString("   game over")
	}
	sb.WriteString("\n")

	width := len(strconv.Itoa(b.Size() - 1))
	sb.WriteString(strings.Repeat(" ", width+1))
	for x := 0; x < b.Size(); x++ {
		fmt.Fprintf(&sb, " %*d", width, x)
	}
	sb.WriteString("\n")

	for y := 0; y < b.Size(); y++ {
		fmt.Fprintf(&sb, "%*d ", width, y)
		for x := 0; x < b.Size(); x++ {
			fmt.Fprintf(&sb, " %*s", width, cellGlyph(b, x, y))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func cellGlyph(b *minesweeper.Board, x, y int) string {
	switch {
	case b.Flagged(x, y):
		return glyphFlag
	case !b.Revealed(x, y):
		return glyphHidden
	}
	switch v := b.Value(x, y); v {
	case minesweeper.Mine:
		return glyphMine
	case 0:
		return glyphEmpty
	default:
		return strconv.Itoa(v)
	}
}
