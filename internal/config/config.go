package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	MailboxSize        int           `mapstructure:"mailbox_size" yaml:"mailbox_size"`
	DefaultRoomName    string        `mapstructure:"default_room_name" yaml:"default_room_name"`
	JournalPath        string        `mapstructure:"journal_path" yaml:"journal_path"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8000",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 600,
		MailboxSize:        64,
		DefaultRoomName:    "Default Room",
		JournalPath:        "",
		CORSAllowedOrigins: []string{"*"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.MailboxSize != 0 {
		c.MailboxSize = other.MailboxSize
	}
	if other.DefaultRoomName != "" {
		c.DefaultRoomName = other.DefaultRoomName
	}
	if other.JournalPath != "" {
		c.JournalPath = other.JournalPath
	}
	if len(other.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = other.CORSAllowedOrigins
	}
}
