package config

import "time"

// Config holds client configuration values.
type Config struct {
	ServerURL       string        `mapstructure:"server_url" yaml:"server_url"`
	ReconnectDelay  time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	SendBuffer      int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	IdentityPath    string        `mapstructure:"identity_path" yaml:"identity_path"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile         string        `mapstructure:"log_file" yaml:"log_file"`
	BoardSize       int           `mapstructure:"board_size" yaml:"board_size"`
	BoardMines      int           `mapstructure:"board_mines" yaml:"board_mines"`
	TimeFormat      string        `mapstructure:"time_format" yaml:"time_format"`
	PresenceMarkers []string      `mapstructure:"presence_markers" yaml:"presence_markers"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:       "ws://localhost:3000/ws",
		ReconnectDelay:  3 * time.Second,
		DialTimeout:     10 * time.Second,
		SendBuffer:      32,
		IdentityPath:    "minechat.db",
		LogLevel:        "info",
		LogFile:         "",
		BoardSize:       10,
		BoardMines:      10,
		TimeFormat:      "15:04:05",
		PresenceMarkers: []string{"加入", "离开", "joined", "left"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.SendBuffer != 0 {
		c.SendBuffer = other.SendBuffer
	}
	if other.IdentityPath != "" {
		c.IdentityPath = other.IdentityPath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.BoardSize != 0 {
		c.BoardSize = other.BoardSize
	}
	if other.BoardMines != 0 {
		c.BoardMines = other.BoardMines
	}
	if other.TimeFormat != "" {
		c.TimeFormat = other.TimeFormat
	}
	if len(other.PresenceMarkers) > 0 {
		c.PresenceMarkers = other.PresenceMarkers
	}
}
