// Package backend builds the ledger store and its optional save publisher
// from configuration.
package backend

import (
	"context"

	"zeus/internal/services"
	"zeus/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the store, the publisher (nil when messaging is off)
// and a cleanup that closes both.
type BackendResult struct {
	Store     storage.Store
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	DataFile     string
	SQLiteDBPath string

	// Messaging is optional for both store types.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
