package config

import "github.com/kelseyhightower/envconfig"

// Config holds server configuration loaded from environment variables.
type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	DBPath     string `envconfig:"DB_PATH" default:"roomchat.db"`
	NATSURL    string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	MaxRooms   int    `envconfig:"MAX_ROOMS" default:"100"`
	MaxHistory int    `envconfig:"MAX_HISTORY" default:"50"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
