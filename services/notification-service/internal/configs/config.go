package configs

import (
	"fmt"
	"log"
	"strings"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/constants"

	"github.com/eliyaaki/todo-micro-services/pkg/envconfig"
)

type RabbitMQConfig struct {
	URLs          []string
	ClientID      string
	GroupID       string
	DeadlineTopic string
}

type RESTconfig struct {
	PORT string
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

type AppConfig struct {
	RabbitMQ     RabbitMQConfig
	Rest         RESTconfig
	Notifier     string
	FluentBit    FluentBitConfig
	AppName      string
	StdoutLogger StdoutLogConfig
}

func LoadConfig(envPath ...string) (*AppConfig, error) {
	if err := envconfig.LoadDotEnv(envPath...); err != nil {
		return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
	}

	cfg := &AppConfig{}
	cfg.AppName = envconfig.String("APP_NAME", "notification-service")

	cfg.RabbitMQ.URLs = envconfig.List("RABBITMQ_URLS", envconfig.List("RABBITMQ_URL", nil))
	if len(cfg.RabbitMQ.URLs) == 0 {
		return nil, fmt.Errorf("RABBITMQ_URLS (or RABBITMQ_URL) environment variable is required")
	}
	cfg.RabbitMQ.ClientID = envconfig.String("CLIENT_ID", constants.DefaultClientID)
	cfg.RabbitMQ.GroupID = envconfig.String("GROUP_ID", constants.DefaultGroupID)
	cfg.RabbitMQ.DeadlineTopic = envconfig.String("DEADLINE_TOPIC", constants.DefaultDeadlineTopic)

	cfg.Rest.PORT = envconfig.String("PORT", "3001")

	cfg.Notifier = strings.ToLower(envconfig.String("NOTIFIER", constants.NotifierLog))
	switch cfg.Notifier {
	case constants.NotifierLog, constants.NotifierSSE:
	default:
		return nil, fmt.Errorf("NOTIFIER must be %q or %q, got %q", constants.NotifierLog, constants.NotifierSSE, cfg.Notifier)
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
