package configs

import (
	"fmt"
	"log"
	"time"

	"github.com/eliyaaki/todo-micro-services/pkg/envconfig"
)

type RabbitMQConfig struct {
	URLs          []string
	ClientID      string
	DeadlineTopic string
}

type RESTconfig struct {
	PORT string
}

type DatabaseConfig struct {
	URL string
}

type SchedulerConfig struct {
	Interval    time.Duration
	Concurrency int
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig holds the whole todo-service configuration.
type AppConfig struct {
	RabbitMQ     RabbitMQConfig
	Rest         RESTconfig
	Database     DatabaseConfig
	Scheduler    SchedulerConfig
	FluentBit    FluentBitConfig
	AppName      string
	StdoutLogger StdoutLogConfig
}

// LoadConfig reads the optional .env file and then the environment.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	if err := envconfig.LoadDotEnv(envPath...); err != nil {
		return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
	}

	cfg := &AppConfig{}
	cfg.AppName = envconfig.String("APP_NAME", "todo-service")

	cfg.Database.URL = envconfig.String("DATABASE_URL", "")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.RabbitMQ.URLs = envconfig.List("RABBITMQ_URLS", envconfig.List("RABBITMQ_URL", nil))
	if len(cfg.RabbitMQ.URLs) == 0 {
		return nil, fmt.Errorf("RABBITMQ_URLS (or RABBITMQ_URL) environment variable is required")
	}
	cfg.RabbitMQ.ClientID = envconfig.String("CLIENT_ID", "todo-app")
	cfg.RabbitMQ.DeadlineTopic = envconfig.String("DEADLINE_TOPIC", "todo-deadline-checking")

	cfg.Rest.PORT = envconfig.String("PORT", "3000")

	cfg.Scheduler.Interval = envconfig.Duration("PUBLISH_INTERVAL", time.Minute)
	if cfg.Scheduler.Interval <= 0 {
		return nil, fmt.Errorf("PUBLISH_INTERVAL must be positive, got %s", cfg.Scheduler.Interval)
	}
	cfg.Scheduler.Concurrency = envconfig.Int("PUBLISH_CONCURRENCY", 4)
	if cfg.Scheduler.Concurrency < 1 {
		log.Printf("Warning: PUBLISH_CONCURRENCY must be at least 1, got %d. Using 1.\n", cfg.Scheduler.Concurrency)
		cfg.Scheduler.Concurrency = 1
	}

	cfg.FluentBit.Enabled = envconfig.Bool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = envconfig.String("FLUENTBIT_HOST", "")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = envconfig.Int("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = envconfig.String("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = envconfig.String("LOG_LEVEL", envconfig.String("STDOUT_LOG_LEVEL", "info"))

	return cfg, nil
}
