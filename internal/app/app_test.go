package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/minechat/internal/config"
	"github.com/vovakirdan/minechat/internal/proto"
	"github.com/vovakirdan/minechat/internal/session"
	"github.com/vovakirdan/minechat/internal/store/sqlite"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startRelay accepts client connections and hands them to the test.
func startRelay(t *testing.T) (string, <-chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 4)
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		<-release
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws", conns
}

func TestRunAgainstRelay(t *testing.T) {
	url, conns := startRelay(t)

	cfg := config.Default()
	cfg.ServerURL = url
	cfg.IdentityPath = filepath.Join(t.TempDir(), "identity.db")
	cfg.DialTimeout = time.Second

	in, input := io.Pipe()
	out := &lockedBuffer{}
	nop := zerolog.Nop()

	a, err := New(&cfg, &nop, IO{In: in, Out: out}, WithUser("alice"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var peer *websocket.Conn
	select {
	case peer = <-conns:
	case <-ctx.Done():
		t.Fatal("client never connected")
	}
	defer peer.CloseNow()

	var announce proto.Envelope
	require.NoError(t, wsjson.Read(ctx, peer, &announce))
	require.Equal(t, proto.KindChat, announce.Kind)
	require.Equal(t, "alice", announce.Sender)
	require.Empty(t, announce.Body)

	require.NoError(t, wsjson.Write(ctx, peer, proto.Envelope{
		Kind: proto.KindRoster,
		Roster: []proto.PresenceInfo{
			{Sender: "alice", Address: "127.0.0.1"},
			{Sender: "bob", Address: "10.0.0.2"},
		},
	}))
	require.NoError(t, wsjson.Write(ctx, peer, proto.Envelope{Kind: proto.KindSystem, Sender: "System", Body: "bob joined the chat", Timestamp: "10:00:00"}))
	require.NoError(t, wsjson.Write(ctx, peer, proto.Envelope{Kind: proto.KindSystem, Sender: "System", Body: "server restarting", Timestamp: "10:00:01"}))
	require.NoError(t, wsjson.Write(ctx, peer, proto.Envelope{Kind: proto.KindChat, Sender: "bob", Body: "hi alice", Timestamp: "10:00:02"}))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[10:00:02] bob: hi alice")
	}, 5*time.Second, 10*time.Millisecond)
	screen := out.String()
	require.Contains(t, screen, "2 online")
	require.Contains(t, screen, "* bob joined the chat")
	require.NotContains(t, screen, "server restarting")
	require.NotContains(t, screen, session.NoticeConnected)

	_, err = io.WriteString(input, "hello bob\n")
	require.NoError(t, err)

	var msg proto.Envelope
	require.NoError(t, wsjson.Read(ctx, peer, &msg))
	require.Equal(t, "hello bob", msg.Body)
	require.Equal(t, "alice", msg.Sender)

	// Keep reading so the client's close handshake completes.
	go func() {
		for {
			if _, _, err := peer.Read(ctx); err != nil {
				return
			}
		}
	}()

	_, err = io.WriteString(input, "/quit\n")
	require.NoError(t, err)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("run did not return")
	}

	st, err := sqlite.New(cfg.IdentityPath)
	require.NoError(t, err)
	defer st.Close()
	name, err := st.Get(ctx, session.IdentityKey)
	require.NoError(t, err)
	require.Equal(t, "alice", name)
}
