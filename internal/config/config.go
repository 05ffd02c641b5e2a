package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"DEBUG"`
	PostgresConfig
	RedisConfig
	EngineConfig
}

// NewConfig reads the environment. When ENV_FILE is set, that file is loaded
// first; variables already present in the environment win.
func NewConfig() (*Config, error) {
	config := &Config{}

	if file := os.Getenv("ENV_FILE"); file != "" {
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("config.NewConfig: %w", err)
		}
	}

	err := env.Parse(config)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfig: %w", err)
	}

	if err = config.EngineConfig.validate(); err != nil {
		return nil, fmt.Errorf("config.NewConfig: %w", err)
	}
	return config, nil
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://test:test@db:5432/test?sslmode=disable"`
	MaxOpenConns    int    `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int    `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	AutoMigrateUp   string `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown string `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
	// Empty means the migrations embedded in the binary.
	MigrationsURL string `env:"MIGRATIONS_URL" envDefault:""`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

type RedisConfig struct {
	// Empty disables real-time publishing and the asynq dispatcher.
	RedisAddr     string `env:"REDIS_ADDR" envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	ChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"quotes"`
	// AsyncDispatch sends notification distribution through an asynq queue
	// instead of running it inside the intake call.
	AsyncDispatch bool `env:"ASYNC_DISPATCH" envDefault:"false"`
}

type EngineConfig struct {
	RequestLifetime  time.Duration `env:"REQUEST_LIFETIME" envDefault:"45m"`
	MatchRadiusMiles float64       `env:"MATCH_RADIUS_MILES" envDefault:"5"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"5s"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	BadgeInterval    time.Duration `env:"BADGE_INTERVAL" envDefault:"1h"`
	JobTimeout       time.Duration `env:"JOB_TIMEOUT" envDefault:"1m"`
}

func (c EngineConfig) validate() error {
	switch {
	case c.RequestLifetime <= 0:
		return fmt.Errorf("REQUEST_LIFETIME must be positive, got %s", c.RequestLifetime)
	case c.MatchRadiusMiles <= 0:
		return fmt.Errorf("MATCH_RADIUS_MILES must be positive, got %v", c.MatchRadiusMiles)
	case c.OperationTimeout <= 0:
		return fmt.Errorf("OPERATION_TIMEOUT must be positive, got %s", c.OperationTimeout)
	case c.SweepInterval <= 0 || c.BadgeInterval <= 0:
		return fmt.Errorf("job intervals must be positive")
	case c.JobTimeout <= 0:
		return fmt.Errorf("JOB_TIMEOUT must be positive, got %s", c.JobTimeout)
	}
	return nil
}
