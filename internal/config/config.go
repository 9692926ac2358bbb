package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server     ServerConfig     `envPrefix:"SERVER_"`
	Database   DatabaseConfig   `envPrefix:"DATABASE_"`
	Kafka      KafkaConfig      `envPrefix:"KAFKA_"`
	Storage    StorageConfig    `envPrefix:"STORAGE_"`
	Auth       AuthConfig       `envPrefix:"AUTH_"`
	Chat       ChatConfig       `envPrefix:"CHAT_"`
	Moderation ModerationConfig `envPrefix:"MODERATION_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:"0.0.0.0:8080"`
}

type DatabaseConfig struct {
	// Driver selects the store backend: "mongo" or "memory". The memory
	// driver is the demo mode with seeded participants.
	Driver   string `env:"DRIVER" envDefault:"mongo"`
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"chat_service"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"chat-events"`
}

type StorageConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:""`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
}

// ChatConfig carries the simulation timings of the connection, typing and
// read-receipt machinery.
type ChatConfig struct {
	ConnectSettleDelay time.Duration `env:"CONNECT_SETTLE_DELAY" envDefault:"1s"`
	FlakyProbeInterval time.Duration `env:"FLAKY_PROBE_INTERVAL" envDefault:"30s"`
	FlakyDropChance    float64       `env:"FLAKY_DROP_CHANCE" envDefault:"0.1"`
	ReconnectDelay     time.Duration `env:"RECONNECT_DELAY" envDefault:"2s"`
	TypingTTL          time.Duration `env:"TYPING_TTL" envDefault:"3s"`
	ReadEchoDelay      time.Duration `env:"READ_ECHO_DELAY" envDefault:"1s"`
	UploadDelay        time.Duration `env:"UPLOAD_DELAY" envDefault:"2s"`
}

type ModerationConfig struct {
	// PriorityFloors raises the minimum priority per report reason,
	// "reason:priority" pairs.
	PriorityFloors []string      `env:"PRIORITY_FLOORS" envDefault:"harassment:medium,privacy:medium,inappropriate:medium" envSeparator:","`
	InactiveAfter  time.Duration `env:"INACTIVE_AFTER" envDefault:"72h"`
	// LongConversation flags rooms whose message count crosses this bound.
	LongConversation int64 `env:"LONG_CONVERSATION" envDefault:"50"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
