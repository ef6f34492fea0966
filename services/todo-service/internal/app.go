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

	postgres_adapter "github.com/eliyaaki/todo-micro-services/services/todo-service/internal/adapters/postgres"
	rabbitmq_adapter "github.com/eliyaaki/todo-micro-services/services/todo-service/internal/adapters/rabbitmq"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/adapters/rest"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/adapters/scheduler"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/configs"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/usecase"

	fluentlogger "github.com/eliyaaki/todo-micro-services/pkg/fluent_logger"
	"github.com/eliyaaki/todo-micro-services/pkg/logger"
	"github.com/eliyaaki/todo-micro-services/pkg/postgres"
	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_common"
	"github.com/eliyaaki/todo-micro-services/pkg/rabbitmq/rabbitmq_producer"
	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config      *configs.AppConfig
	dbPool      *pgxpool.Pool
	connManager *rabbitmq_common.ConnectionManager
	publisher   *rabbitmq_producer.Publisher
	apiServer   *rest.Server
	scheduler   port.BackgroundJobPort

	logger       port.LoggerPort
	fluentClient *fluent.Fluent
}

// newLogger builds stdout logging plus Fluent Bit when enabled.
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
			activeLoggers[0].Error("Failed to create fluentbit client", err, nil)
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

// wire builds the components in dependency order. Whatever was created
// before a failure is released by closeResources.
func (a *App) wire(baseLogger port.LoggerPort) error {
	initCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbPool, err := postgres.NewClient(initCtx, postgres.Config{DatabaseURL: a.config.Database.URL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.dbPool = dbPool
	if err := postgres_adapter.EnsureSchema(initCtx, dbPool, baseLogger.WithFields(port.Fields{"component": "migrations"})); err != nil {
		return err
	}
	a.logger.Info("PostgreSQL connection established.", nil)

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

	publisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		ExchangeName:             topic,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_common.NewLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_publisher"})),
	}, connManager)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	a.publisher = publisher

	deadlineQueue, err := rabbitmq_adapter.NewDeadlineQueueAdapter(publisher, topic)
	if err != nil {
		return err
	}

	todoRepo, err := postgres_adapter.NewPostgresTodoRepository(dbPool)
	if err != nil {
		return err
	}

	getAllUC := usecase.NewGetAllTodosUseCase(todoRepo)
	createUC := usecase.NewCreateTodoUseCase(todoRepo, deadlineQueue)
	updateUC := usecase.NewUpdateTodoUseCase(todoRepo)
	deleteUC := usecase.NewDeleteTodoUseCase(todoRepo)
	publishAllUC := usecase.NewPublishAllTodosUseCase(todoRepo, deadlineQueue, a.config.Scheduler.Concurrency)

	sched, err := scheduler.NewIntervalScheduler(a.config.Scheduler.Interval, publishAllUC, baseLogger)
	if err != nil {
		return err
	}
	a.scheduler = sched

	handlers := rest.NewTodoHandler(getAllUC, createUC, updateUC, deleteUC)
	a.apiServer = rest.NewServer(a.config.Rest.PORT, handlers, baseLogger)

	a.logger.Info("All components initialized.", nil)
	return nil
}

func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Error closing publisher", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}
}

// Run blocks until a signal, a component failure, or the broker closing the
// connection or the publisher channel.
// Only the last two make it return an error.
func (a *App) Run() (runErr error) {
	appCtx, cancelApp := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)
		cancelApp()

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
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
		if err := a.scheduler.Start(appCtx); err != nil {
			errorsCh <- fmt.Errorf("scheduler error: %w", err)
		}
	}()

	brokerLost := rabbitmq_common.WatchClose(appCtx,
		rabbitmq_common.CloseSignal{Name: "connection", C: a.connManager.NotifyClose()},
		rabbitmq_common.CloseSignal{Name: "publisher channel", C: a.publisher.NotifyClose()},
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
