package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quizarena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
player:
  name: Nora
  sex: f
server:
  transport: nats
  url: nats://localhost:4222
  game_id: g-42
reconnect_delay_sec: 10
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Nora", cfg.Player.Name)
	assert.Equal(t, "f", cfg.Player.Sex)
	assert.Equal(t, "nats", cfg.Server.Transport)
	assert.Equal(t, "nats://localhost:4222", cfg.Server.URL)
	assert.Equal(t, "g-42", cfg.Server.GameID)
	assert.Equal(t, 10, cfg.ReconnectDelaySec)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
player:
  name: Nora
server:
  url: ws://filehost/ws
`)
	t.Setenv("QUIZ_SERVER_URL", "ws://envhost/ws")
	t.Setenv("QUIZ_RECONNECT_DELAY_SEC", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://envhost/ws", cfg.Server.URL)
	assert.Equal(t, 30, cfg.ReconnectDelaySec)
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("QUIZ_PLAYER_NAME", "Nora")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Nora", cfg.Player.Name)
	assert.Equal(t, "websocket", cfg.Server.Transport)
	assert.Equal(t, 5, cfg.ReconnectDelaySec)
}

func TestNameIsRequired(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "player: [broken")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestBadIntEnvIsIgnored(t *testing.T) {
	t.Setenv("QUIZ_PLAYER_NAME", "Nora")
	t.Setenv("QUIZ_RECONNECT_DELAY_SEC", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ReconnectDelaySec)
}
