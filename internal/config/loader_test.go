package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "default config should be written")

	// The written file must load back to the same values.
	again, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, Default(), again)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9000"
log_level: debug
shutdown_timeout: 10s
default_room_name: Arena
journal_path: /tmp/lobby.db
cors_allowed_origins:
  - https://example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("WIRELOBBY_ADDR", ":9100")
	t.Setenv("WIRELOBBY_RATE_LIMIT_PER_MINUTE", "30")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "Arena", cfg.DefaultRoomName)
	assert.Equal(t, "/tmp/lobby.db", cfg.JournalPath)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, Default().MailboxSize, cfg.MailboxSize)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0o600))

	_, _, err := Load(nil, path)
	assert.Error(t, err)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "warn", MailboxSize: 8})

	assert.Equal(t, ":1234", cfg.Addr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MailboxSize)
	assert.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, Default().CORSAllowedOrigins, cfg.CORSAllowedOrigins)
}

func TestDefaultConfigFileCarriesEveryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, _, err := Load(nil, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var written map[string]any
	require.NoError(t, yaml.Unmarshal(data, &written))

	want := []string{
		"addr", "read_header_timeout", "shutdown_timeout", "log_level", "log_format",
		"max_message_bytes", "rate_limit_per_minute", "mailbox_size",
		"default_room_name", "journal_path", "cors_allowed_origins",
	}
	got, err := keys()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	for _, key := range want {
		assert.Contains(t, written, key)
	}
	assert.Equal(t, "5s", written["shutdown_timeout"])
}

func TestLoadEnvOverridesEveryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	t.Setenv("WIRELOBBY_LOG_FORMAT", "json")
	t.Setenv("WIRELOBBY_MAX_MESSAGE_BYTES", "2048")
	t.Setenv("WIRELOBBY_MAILBOX_SIZE", "16")
	t.Setenv("WIRELOBBY_READ_HEADER_TIMEOUT", "2s")
	t.Setenv("WIRELOBBY_JOURNAL_PATH", "/var/lib/lobby.db")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(2048), cfg.MaxMessageBytes)
	assert.Equal(t, 16, cfg.MailboxSize)
	assert.Equal(t, 2*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, "/var/lib/lobby.db", cfg.JournalPath)
}

// keys returns the keys of the default config file in order.
func keys() ([]string, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	mapping := node.Content[0]
	out := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i < len(mapping.Content); i += 2 {
		out = append(out, mapping.Content[i].Value)
	}
	return out, nil
}
