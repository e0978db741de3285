// Package config loads the client configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	Player struct {
		Name string `yaml:"name"`
		Sex  string `yaml:"sex"` // "m" or "f"
	} `yaml:"player"`

	Server struct {
		Transport string `yaml:"transport"` // "websocket" or "nats"
		URL       string `yaml:"url"`
		GameID    string `yaml:"game_id"`
	} `yaml:"server"`

	ReconnectDelaySec int    `yaml:"reconnect_delay_sec"`
	LogLevel          string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Transport = "websocket"
	c.Server.URL = "ws://localhost:8080/ws"
	c.ReconnectDelaySec = 5
	c.LogLevel = "info"
	return &c
}

// Load reads the YAML file at path and applies QUIZ_* environment
// overrides. A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	c.Player.Name = getEnv("QUIZ_PLAYER_NAME", c.Player.Name)
	c.Player.Sex = getEnv("QUIZ_PLAYER_SEX", c.Player.Sex)
	c.Server.Transport = getEnv("QUIZ_TRANSPORT", c.Server.Transport)
	c.Server.URL = getEnv("QUIZ_SERVER_URL", c.Server.URL)
	c.Server.GameID = getEnv("QUIZ_GAME_ID", c.Server.GameID)
	c.ReconnectDelaySec = getEnvAsInt("QUIZ_RECONNECT_DELAY_SEC", c.ReconnectDelaySec)
	c.LogLevel = getEnv("QUIZ_LOG_LEVEL", c.LogLevel)

	if c.Player.Name == "" {
		return nil, fmt.Errorf("player name is required (player.name or QUIZ_PLAYER_NAME)")
	}
	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
