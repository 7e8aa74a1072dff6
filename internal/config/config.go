// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the gateway settings.
type ServerConfig struct {
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	MaxSessions int             `mapstructure:"max_sessions"`
	SessionTTL  time.Duration   `mapstructure:"session_ttl"` // retention of finished sessions
}

// WebSocketConfig holds the WebSocket listener settings.
type WebSocketConfig struct {
	Address string `mapstructure:"address"`
}

// GameConfig holds the per-table rule timings and policies.
type GameConfig struct {
	TurnTimeout          time.Duration `mapstructure:"turn_timeout"`
	InterruptTimeout     time.Duration `mapstructure:"interrupt_timeout"`
	MaxNopeChain         int           `mapstructure:"max_nope_chain"`
	ForfeitAfterTimeouts int           `mapstructure:"forfeit_after_timeouts"` // 0 disables auto-elimination
	MinPlayers           int           `mapstructure:"min_players"`
	MaxPlayers           int           `mapstructure:"max_players"`
	Radioeggtive         bool          `mapstructure:"radioeggtive"` // shuffle one radioeggtive card into the deck
}

// DatabaseConfig holds the optional result store settings. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load reads configuration from the given file. Environment variables
// prefixed with EGGSPLODE_ override file values (EGGSPLODE_GAME_TURN_TIMEOUT
// overrides game.turn_timeout). A missing file is not an error; defaults
// apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.session_ttl", time.Hour)
	v.SetDefault("game.turn_timeout", 60*time.Second)
	v.SetDefault("game.interrupt_timeout", 10*time.Second)
	v.SetDefault("game.max_nope_chain", 6)
	v.SetDefault("game.forfeit_after_timeouts", 0)
	v.SetDefault("game.radioeggtive", false)
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.max_players", 10)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("EGGSPLODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Game.MinPlayers < 2 {
		return fmt.Errorf("game.min_players must be at least 2, got %d", c.Game.MinPlayers)
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("game.max_players (%d) below game.min_players (%d)", c.Game.MaxPlayers, c.Game.MinPlayers)
	}
	if c.Game.TurnTimeout <= 0 || c.Game.InterruptTimeout <= 0 {
		return fmt.Errorf("game timeouts must be positive")
	}
	if c.Game.MaxNopeChain < 1 {
		return fmt.Errorf("game.max_nope_chain must be at least 1, got %d", c.Game.MaxNopeChain)
	}
	return nil
}
