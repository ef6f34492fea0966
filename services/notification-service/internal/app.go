package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/adapters/clock"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/adapters/notifier"
	rabbitmq_adapter "github.com/eliyaaki/todo-micro-services/services/notification-service/internal/adapters/rabbitmq"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/adapters/rest"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/configs"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/constants"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/notification-service/internal/core/usecase"

	fluentlogger "github.com/eliyaaki/todo-micro-services/pkg/fluent_logger"
	"github.com/eliyaaki/todo-micro-services/pkg/logger"
	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_common"
	"github.com/fluent/fluent-logger-golang/fluent"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config      *configs.AppConfig
	connManager *rabbitmq_common.ConnectionManager
	listener    port.EventListenerPort
	sseNotifier *notifier.SSENotifier
	apiServer   *rest.Server

	logger       port.LoggerPort
	fluentClient *fluent.Fluent
}

func newLogger(appConfig *configs.AppConfig) (port.LoggerPort, *fluent.Fluent, error) {
	activeLoggers := []port.LoggerPort{
		logger.NewSlogAdapter(logger.SlogConfig{
			Level:    logger.ParseLevel(appConfig.StdoutLogger.Level),
			UseColor: true,
		}),
	}

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		var err error
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger.NewFluentLoggerAdapter(fluentClient, logger.ParseLevel(appConfig.FluentBit.Level))
		if err != nil {
			_ = fluentClient.Close()
			return nil, nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		if fluentClient != nil {
			_ = fluentClient.Close()
		}
		return nil, nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	return multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName}), fluentClient, nil
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	baseLogger, fluentClient, err := newLogger(appConfig)
	if err != nil {
		return nil, err
	}
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{"fluent_enabled": appConfig.FluentBit.Enabled})

	application := &App{
		config:       appConfig,
		logger:       appLogger,
		fluentClient: fluentClient,
	}
	if err := application.wire(baseLogger); err != nil {
		appLogger.Error("Failed to initialize application", err, nil)
		application.closeResources()
		return nil, err
	}
	return application, nil
}

func (a *App) wire(baseLogger port.LoggerPort) error {
	initCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	connManager, err := rabbitmq_common.NewManager(initCtx, rabbitmq_common.Config{
		URLs:     a.config.RabbitMQ.URLs,
		ClientID: a.config.RabbitMQ.ClientID,
	}, rabbitmq_common.NewLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})))
	if err != nil {
		return fmt.Errorf("failed to create connection manager: %w", err)
	}
	a.connManager = connManager

	topic := a.config.RabbitMQ.DeadlineTopic
	if err := connManager.CreateTopic(rabbitmq_common.TopicConfig{Name: topic}); err != nil {
		a.logger.Error("Topic creation failed, continuing", err, port.Fields{"topic": topic})
	}

	var deadlineNotifier port.NotifierPort
	var notificationHandler *rest.NotificationHandler
	switch a.config.Notifier {
	case constants.NotifierSSE:
		a.sseNotifier = notifier.NewSSENotifier(baseLogger)
		deadlineNotifier = a.sseNotifier
		notificationHandler = rest.NewNotificationHandler(a.sseNotifier)
	default:
		deadlineNotifier = notifier.NewLogNotifier()
	}

	checkUC, err := usecase.NewCheckDeadlineExpirationUseCase(deadlineNotifier, clock.SystemClock{})
	if err != nil {
		return err
	}

	consumer, err := rabbitmq_adapter.NewDeadlineConsumerAdapter(rabbitmq_adapter.ConsumerConfig{
		GroupID:  a.config.RabbitMQ.GroupID,
		ClientID: a.config.RabbitMQ.ClientID,
	}, baseLogger, connManager)
	if err != nil {
		return err
	}
	consumer.Register(topic, rabbitmq_adapter.NewDeadlineCheckHandler(checkUC))
	a.listener = consumer

	a.apiServer = rest.NewServer(a.config.Rest.PORT, notificationHandler, baseLogger)

	a.logger.Info("All components initialized.", port.Fields{"notifier": a.config.Notifier, "topic": topic})
	return nil
}

func (a *App) closeResources() {
	if a.listener != nil {
		if err := a.listener.Close(); err != nil {
			a.logger.Error("Error closing deadline consumer", err, nil)
		}
	}
	if a.sseNotifier != nil {
		_ = a.sseNotifier.Close()
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}

// Run blocks until a signal, a subscription failure or broker connection
// loss. Only the last two make it return an error.
func (a *App) Run() (runErr error) {
	appCtx, cancelApp := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)
		cancelApp()

		a.logger.Info("Waiting for the consumer to finish the current message...", nil)
		wg.Wait()

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if a.sseNotifier != nil {
			_ = a.sseNotifier.Close()
		}
		if err := a.apiServer.Stop(stopCtx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}

		a.closeResources()
		a.logger.Info("Application shut down.", nil)
	}()

	a.logger.Info("Application is starting...", nil)
	errorsCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorsCh <- fmt.Errorf("HTTP server start error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.listener.Start(appCtx); err != nil {
			errorsCh <- fmt.Errorf("deadline consumer error: %w", err)
		}
	}()

	brokerLost := rabbitmq_common.WatchClose(appCtx,
		rabbitmq_common.CloseSignal{Name: "connection", C: a.connManager.NotifyClose()},
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or component error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
		runErr = err
	case err := <-brokerLost:
		a.logger.Error("Broker connection lost, shutting down", err, nil)
		runErr = err
	}

	return runErr
}
