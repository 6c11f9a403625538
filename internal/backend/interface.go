package backend

import (
	"context"

	"chitfund/internal/core"
	"chitfund/internal/ports"
	"chitfund/internal/services"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is a hydrated ledger service plus what it was built from.
type BackendResult struct {
	Service *services.LedgerService
	Store   ports.LedgerStore
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher ports.EventPublisher
	// Ready checks that the store is reachable.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type     BackendType
	Settings core.Settings

	SQLiteDBPath string

	// AMQP is optional for both backends.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
