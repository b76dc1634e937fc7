package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"config", "server", "user", "log-level"} {
		require.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	require.NoError(t, cmd.ParseFlags([]string{"--server", "ws://chat.test/ws", "--user", "alice"}))
	require.Equal(t, "ws://chat.test/ws", cmd.Flags().Lookup("server").Value.String())
	require.Error(t, cmd.Args(cmd, []string{"extra"}))
}
