package store

import (
	"fmt"
	"log/slog"
	"sync"
)

// Store is an in-memory table store addressed by partition and row key.
//
// A single lock covers the whole of every public method, so all operations
// across all tables observe one serial order. All methods are safe for
// concurrent use.
type Store struct {
	mu        sync.Mutex
	tables    map[string]*table
	etags     etagSource
	streamSeq uint64

	config Config
	logger *slog.Logger
}

// New creates a new, empty Store.
func New(config Config) *Store {
	config.validate()
	return &Store{
		tables: make(map[string]*table),
		config: config,
		logger: config.Logger,
	}
}

// write runs fn under the store lock and publishes whatever changes fn
// recorded once the lock is released, including after a failure.
func (s *Store) write(fn func(log *changeLog) error) error {
	log := &changeLog{}
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(log)
	}()
	s.publish(log)
	return err
}

// conflict logs a rejected batch and returns an error wrapping ErrConflict.
func (s *Store) conflict(op, tableName string, k Key, reason string) error {
	s.logger.Debug("batch rejected",
		"op", op,
		"table", tableName,
		"partitionKey", k.PartitionKey,
		"rowKey", k.RowKey,
		"reason", reason,
	)
	return fmt.Errorf("%s %q: %s (%s/%s): %w", op, tableName, reason, k.PartitionKey, k.RowKey, ErrConflict)
}
