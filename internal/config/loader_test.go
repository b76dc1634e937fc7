package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "minechat.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.Equal(t, Default().ServerURL, cfg.ServerURL)
	require.Equal(t, 3*time.Second, cfg.ReconnectDelay)

	_, err = os.Stat(path)
	require.NoError(t, err)

	// The written file must load back to the same values.
	again, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minechat.yaml")
	content := []byte("server_url: ws://file.example/ws\nreconnect_delay: 5s\nboard_size: 16\nboard_mines: 40\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("MINECHAT_SERVER_URL", "ws://env.example/ws")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, "ws://env.example/ws", cfg.ServerURL)
	require.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	require.Equal(t, 16, cfg.BoardSize)
	require.Equal(t, 40, cfg.BoardMines)
	require.Equal(t, Default().TimeFormat, cfg.TimeFormat)
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{ServerURL: "ws://override/ws", LogLevel: "debug"})

	require.Equal(t, "ws://override/ws", cfg.ServerURL)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, Default().BoardMines, cfg.BoardMines)
	require.Equal(t, Default().PresenceMarkers, cfg.PresenceMarkers)
}

func TestSetDefaultsCoversEveryKey(t *testing.T) {
	v := viper.New()
	require.NoError(t, setDefaults(v, Default()))

	require.Equal(t, Default().ServerURL, v.GetString("server_url"))
	require.Equal(t, 10*time.Second, v.GetDuration("dial_timeout"))
	require.Equal(t, Default().PresenceMarkers, v.GetStringSlice("presence_markers"))
	require.ElementsMatch(t, []string{
		"server_url", "reconnect_delay", "dial_timeout", "send_buffer", "identity_path",
		"log_level", "log_file", "board_size", "board_mines", "time_format", "presence_markers",
	}, v.AllKeys())
}

func TestEnvOverridesKeyMissingFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minechat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("board_size: 12\n"), 0o600))
	t.Setenv("MINECHAT_DIAL_TIMEOUT", "250ms")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.DialTimeout)
	require.Equal(t, 12, cfg.BoardSize)
}
