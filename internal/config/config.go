// Package config loads server configuration from a yaml file with
// SNAPSTACK_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration tree.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Room        RoomConfig        `mapstructure:"room"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// ServerConfig configures the websocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
}

// DatabaseConfig configures the Postgres pool. An empty URL runs the server
// on the in-memory store.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RoomConfig configures per-room limits.
type RoomConfig struct {
	MaxPlayers  int `mapstructure:"max_players"`
	MailboxSize int `mapstructure:"mailbox_size"`
}

// PersistenceConfig bounds hidden-state chunking and overlay diff sizing.
type PersistenceConfig struct {
	ChunkLimitBytes int     `mapstructure:"chunk_limit_bytes"`
	DiffMaxBytes    int     `mapstructure:"diff_max_bytes"`
	DiffMaxFraction float64 `mapstructure:"diff_max_fraction"`
}

// Load reads configuration from the given file path. A missing file is fine;
// defaults plus environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_message_bytes", int64(1<<20))
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", int32(10))
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("room.max_players", 8)
	v.SetDefault("room.mailbox_size", 256)
	v.SetDefault("persistence.chunk_limit_bytes", 120000)
	v.SetDefault("persistence.diff_max_bytes", 65536)
	v.SetDefault("persistence.diff_max_fraction", 0.6)

	v.SetEnvPrefix("SNAPSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
