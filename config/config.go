package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Stage string `env:"STAGE" envDefault:"dev"`
	Port  int    `env:"PORT" envDefault:"8080"`

	DatabaseURL  string `env:"DATABASE_URL"`
	MigrationDir string `env:"MIGRATION_DIR" envDefault:"file://db/migration"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret string `env:"JWT_SECRET"`

	// How often the timekeeper sweeps active rooms.
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
}

// Load reads .env when present and parses the environment into a typed
// config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment variables.")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
