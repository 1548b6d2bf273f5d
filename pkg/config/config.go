// Package config loads runtime configuration by layering coded defaults, an
// optional YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envConfigPath       = "KARMABOT_CONFIG"
	envPrefix           = "KARMABOT_"
	envTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	envMongoURI         = "MONGO_URI"
	envRedisAddr        = "REDIS_ADDR"
)

// Config is the root runtime configuration.
type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Redis    RedisConfig    `koanf:"redis"`
	Vote     VoteConfig     `koanf:"vote"`
	Stat     StatConfig     `koanf:"stat"`
	Commands CommandsConfig `koanf:"commands"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token string `koanf:"token"`
}

// MongoConfig configures the document store connection.
type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

// RedisConfig configures the TTL cache connection.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// ReactionConfig binds one reaction token to a signed score delta.
type ReactionConfig struct {
	Token string `koanf:"token"`
	Delta int64  `koanf:"delta"`
}

// VoteConfig controls the rating engine.
type VoteConfig struct {
	// TimeoutSeconds gates repeated votes per (voter, chat, target).
	// Zero disables cooldown enforcement; the vote itself still applies.
	TimeoutSeconds int `koanf:"timeout_seconds"`

	// Threshold is the score at which the one-time achievement fires.
	Threshold int64 `koanf:"threshold"`

	// Reactions are checked in order against the start of the trimmed
	// message text. First match wins.
	Reactions []ReactionConfig `koanf:"reactions"`
}

// StatConfig controls the leaderboard command.
type StatConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// CommandsConfig controls the pending-reply workflow.
type CommandsConfig struct {
	ReplyTimeoutSeconds int `koanf:"reply_timeout_seconds"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// Default returns the coded configuration baseline.
func Default() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "rating",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Vote: VoteConfig{
			TimeoutSeconds: 60,
			Threshold:      100,
			Reactions: []ReactionConfig{
				{Token: "+", Delta: 1},
				{Token: "-", Delta: -1},
				{Token: "👍", Delta: 1},
				{Token: "👎", Delta: -1},
			},
		},
		Stat: StatConfig{
			TimeoutSeconds: 48 * 60 * 60,
		},
		Commands: CommandsConfig{
			ReplyTimeoutSeconds: 300,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables.
//
// Precedence (low to high):
//  1. Default()
//  2. YAML file pointed at by KARMABOT_CONFIG
//  3. KARMABOT_* env keys ("__" nests, e.g. KARMABOT_VOTE__TIMEOUT_SECONDS)
//  4. TELEGRAM_BOT_TOKEN, MONGO_URI, REDIS_ADDR shortcuts
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv(envConfigPath)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyEnvShortcuts(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvShortcuts injects the common deployment secrets on top of file and
// prefixed-env config.
func applyEnvShortcuts(cfg *Config) {
	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Telegram.Token = token
	}
	if uri := strings.TrimSpace(os.Getenv(envMongoURI)); uri != "" {
		cfg.Mongo.URI = uri
	}
	if addr := strings.TrimSpace(os.Getenv(envRedisAddr)); addr != "" {
		cfg.Redis.Addr = addr
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if strings.TrimSpace(c.Mongo.URI) == "" {
		return errors.New("mongo.uri is required")
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		return errors.New("mongo.database is required")
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr is required")
	}
	if len(c.Vote.Reactions) == 0 {
		return errors.New("vote.reactions must not be empty")
	}
	for _, reaction := range c.Vote.Reactions {
		if reaction.Token == "" || reaction.Delta == 0 {
			return fmt.Errorf("invalid reaction %q (delta %d)", reaction.Token, reaction.Delta)
		}
	}
	return nil
}
