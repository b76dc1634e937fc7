package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/minechat/internal/chat"
	"github.com/vovakirdan/minechat/internal/minesweeper"
	"github.com/vovakirdan/minechat/internal/session"
	"github.com/vovakirdan/minechat/internal/ui"
)

const helpText = "/image <path> · /game · /reveal x y · /flag x y · /new · /who · /logout · /quit"

var errNoGame = errors.New("no game open, type /game")

// Client routes user input to the chat and game components. All methods run
// on the event loop.
type Client struct {
	identity *session.Identity
	session  *session.Session
	feed     *chat.Feed
	outbox   *chat.Outbox
	game     *minesweeper.Game
	term     *ui.Terminal
	composer *ui.Composer
	log      *zerolog.Logger

	boardSize  int
	boardMines int
}

// Start restores a saved identity, or applies preset when non-empty, and
// picks the initial view.
func (c *Client) Start(ctx context.Context, preset string) error {
	if preset != "" {
		if err := c.identity.Login(ctx, preset); err != nil {
			return fmt.Errorf("preset identity: %w", err)
		}
	} else if _, err := c.identity.Restore(ctx); err != nil {
		return fmt.Errorf("restore identity: %w", err)
	}

	if !c.identity.LoggedIn() {
		c.term.ShowLogin()
		return nil
	}
	c.enterChat()
	return nil
}

// HandleLine processes one line of terminal input. It reports whether the
// user asked to quit.
func (c *Client) HandleLine(ctx context.Context, line string) bool {
	if c.term.View() == ui.ViewLogin {
		return c.loginLine(ctx, line)
	}

	text, done := c.composer.FeedLine(line)
	if !done {
		c.term.SetInput(c.composer.Snapshot())
		return false
	}
	c.term.SetInput("")

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") && !strings.Contains(trimmed, "\n") {
		return c.command(ctx, trimmed)
	}
	if trimmed == "" {
		return false
	}
	if !c.outbox.SendText(text) {
		c.term.Alert("not connected, message not sent")
		return false
	}
	c.term.Alert("")
	return false
}

// Tick refreshes the game timer.
func (c *Client) Tick(elapsed int) { c.term.SetElapsed(elapsed) }

// Shutdown closes the channel and stops the game clock.
func (c *Client) Shutdown() {
	c.game.Close()
	c.session.Close()
}

// loginLine handles input before a username is set. Slash input is never
// taken as a username.
func (c *Client) loginLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		c.login(ctx, line)
		return false
	}
	switch strings.Fields(trimmed)[0] {
	case "/quit":
		return true
	case "/help":
		c.term.Alert("enter a username to join; /quit exits")
	default:
		c.term.Alert("log in first, usernames cannot start with /")
	}
	return false
}

func (c *Client) login(ctx context.Context, line string) {
	if err := c.identity.Login(ctx, line); err != nil {
		if errors.Is(err, session.ErrNoIdentity) {
			c.term.Alert("username required")
		} else {
			c.log.Error().Err(err).Msg("login")
			c.term.Alert("login failed: " + err.Error())
		}
		return
	}
	c.term.Alert("")
	c.enterChat()
}

func (c *Client) enterChat() {
	c.term.ShowChat(c.identity.Username())
	if err := c.session.Connect(); err != nil {
		c.log.Error().Err(err).Msg("connect")
		c.term.Alert("connect failed: " + err.Error())
	}
}

func (c *Client) logout(ctx context.Context) {
	c.session.Close()
	c.game.Close()
	if err := c.identity.Logout(ctx); err != nil {
		c.log.Error().Err(err).Msg("logout")
	}
	c.composer.Reset()
	c.feed.Clear()
	c.term.Alert("")
	c.term.ShowLogin()
}

func (c *Client) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	var err error
	switch name {
	case "/quit":
		return true
	case "/logout":
		c.logout(ctx)
		return false
	case "/who":
		c.term.ToggleRoster()
	case "/image":
		err = c.sendImage(strings.TrimSpace(strings.TrimPrefix(line, name)))
	case "/game":
		err = c.toggleGame()
	case "/new":
		err = c.newGame()
	case "/reveal":
		err = c.onCell(args, c.reveal)
	case "/flag":
		err = c.onCell(args, c.flag)
	case "/help":
		c.term.Alert(helpText)
		return false
	default:
		err = fmt.Errorf("unknown command %s, try /help", name)
	}

	if err != nil {
		c.term.Alert(err.Error())
	} else if name != "/reveal" {
		c.term.Alert("")
	}
	return false
}

func (c *Client) sendImage(path string) error {
	if path == "" {
		return errors.New("usage: /image <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if err := c.outbox.SendImage(data); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("image rejected")
		return err
	}
	return nil
}

func (c *Client) toggleGame() error {
	if c.term.BoardVisible() {
		c.game.Close()
		c.term.ShowBoard(nil, 0)
		return nil
	}
	return c.newGame()
}

func (c *Client) newGame() error {
	if err := c.game.Start(c.boardSize, c.boardMines); err != nil {
		return fmt.Errorf("new game: %w", err)
	}
	c.term.ShowBoard(c.game.Board(), 0)
	return nil
}

func (c *Client) onCell(args []string, fn func(x, y int)) error {
	if c.game.Board() == nil {
		return errNoGame
	}
	if len(args) != 2 {
		return errors.New("usage: /reveal x y or /flag x y")
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil || !c.game.Board().InBounds(x, y) {
		return fmt.Errorf("no cell at %s %s", args[0], args[1])
	}
	fn(x, y)
	return nil
}

func (c *Client) reveal(x, y int) {
	if len(c.game.Reveal(x, y)) == 0 {
		c.term.ShowBoard(c.game.Board(), c.game.Elapsed())
		return
	}
	board := c.game.Board()
	switch board.Outcome() {
	case minesweeper.Lost:
		c.term.Alert("you hit a mine! game over, /new to play again")
	case minesweeper.Won:
		c.term.Alert(fmt.Sprintf("you cleared the board in %d s!", c.game.Elapsed()))
	default:
		c.term.Alert("")
	}
	c.term.ShowBoard(board, c.game.Elapsed())
}

func (c *Client) flag(x, y int) {
	c.game.ToggleFlag(x, y)
	c.term.ShowBoard(c.game.Board(), c.game.Elapsed())
}
