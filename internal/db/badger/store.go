// Package badger implements db.Store on an embedded BadgerDB, for single-node
// deployments that want the embedding cache to survive restarts without Redis.
package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config selects where badger keeps its files. An empty Path runs in memory.
type Config struct {
	Path   string
	Logger *zap.Logger
}

// Store implements db.Store on BadgerDB.
type Store struct {
	db *badger.DB
}

// zapAdapter routes badger's logger into zap.
type zapAdapter struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, items ...any) {
	a.logger.Errorf(strings.TrimSpace(msg), items...)
}

func (a *zapAdapter) Warningf(msg string, items ...any) {
	a.logger.Warnf(strings.TrimSpace(msg), items...)
}

func (a *zapAdapter) Infof(msg string, items ...any) {
	a.logger.Infof(strings.TrimSpace(msg), items...)
}

func (a *zapAdapter) Debugf(msg string, items ...any) {
	a.logger.Debugf(strings.TrimSpace(msg), items...)
}

// Open opens (or creates) a badger database.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapAdapter{logger: logger.Named("badger").Sugar()}
	// Vectors are float bytes and compress poorly.
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns once the database answers Ping.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, timeout, s.Ping) //nolint:wrapcheck // already descriptive
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores
// the value without one.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
