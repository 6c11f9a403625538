package backend

import (
	"context"
	"fmt"

	"chitfund/internal/amqp"
	"chitfund/internal/log"
	"chitfund/internal/ports"
	"chitfund/internal/services"
	"chitfund/internal/storage"
	"chitfund/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the store, connects AMQP when configured, and returns
// a ledger service already hydrated from the store.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store ports.LedgerStore
		ready func(ctx context.Context) error
		close func() error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store, ready, close = repo, repo.Ping, repo.Close
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: store, Ready: ready}

	var client *amqp.Client
	if config.AMQPURL != "" {
		c, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			client = c
			result.Publisher = c
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc, err := services.NewLedgerService(config.Settings, store, result.Publisher)
	if err == nil {
		err = svc.Hydrate(ctx)
	}
	if err != nil {
		if client != nil {
			client.Close()
		}
		if close != nil {
			close()
		}
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	result.Service = svc
	result.Cleanup = svc.Close

	return result, nil
}
