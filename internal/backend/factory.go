package backend

import (
	"context"
	"errors"
	"fmt"

	"zeus/internal/amqp"
	zlog "zeus/internal/log"
	"zeus/internal/storage"
)

type DefaultFactory struct {
	logger *zlog.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *zlog.Logger) Factory {
	if logger == nil {
		logger = zlog.New(zlog.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(zlog.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case FileBackend:
		result = f.createFileBackend(ctx, config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(ctx, config, result)
	return result, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) *BackendResult {
	store := storage.NewFileStore(config.DataFile)
	f.logger.InfoContext(ctx, "Initialized file backend", zlog.FieldBackend, FileBackend, "path", store.Path())
	return &BackendResult{Store: store}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", zlog.FieldBackend, SQLiteBackend, "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

// attachPublisher connects to the broker when configured. A broker that is
// down only disables notifications; the dashboard keeps working.
func (f *DefaultFactory) attachPublisher(ctx context.Context, config Config, result *BackendResult) {
	if config.AMQPURL == "" {
		return
	}

	client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", zlog.FieldError, err)
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)

	result.Publisher = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		var errs []error
		errs = append(errs, client.Close())
		if storeCleanup != nil {
			errs = append(errs, storeCleanup())
		}
		return errors.Join(errs...)
	}
}
