package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/okian/zerodeadline/internal/domain/history"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/pkg/logger"
	"github.com/okian/zerodeadline/pkg/metrics"
)

const (
	historyKey         = "risk_history"
	maxConflictRetries = 5
)

// BadgerConfig selects where the history database lives.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     logger.Logger
}

// badgerLogger routes badger's internal logs to our logger.
type badgerLogger struct {
	log logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(context.Background(), fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(context.Background(), fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, args...))
}

// OpenBadger opens (creating if needed) a badger database.
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, dirPerm); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{log: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// HistoryBadger keeps the risk history as one JSON value in badger.
type HistoryBadger struct {
	db  *badger.DB
	cfg storeConfig
}

var _ history.Store = (*HistoryBadger)(nil)

// NewHistoryBadger returns a history store over db. The caller owns db.
func NewHistoryBadger(db *badger.DB, opts ...Option) *HistoryBadger {
	return &HistoryBadger{db: db, cfg: newStoreConfig(opts)}
}

// Load implements history.Store.
func (h *HistoryBadger) Load(ctx context.Context) []model.RiskHistoryEntry {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("history_badger", "read", msSince(start)) }()

	var entries []model.RiskHistoryEntry
	err := h.db.View(func(txn *badger.Txn) error {
		var err error
		entries, err = readHistory(txn)
		return err
	})
	if err != nil {
		h.cfg.log.Warn(ctx, "risk history unreadable, starting empty", logger.Error(err))
		return nil
	}
	return entries
}

// Record implements history.Store. The read-decide-write cycle runs in one
// transaction and is retried when another writer commits first.
func (h *HistoryBadger) Record(ctx context.Context, score int) (history.Outcome, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("history_badger", "write", msSince(start)) }()

	entry := model.NewRiskHistoryEntry(h.cfg.now(), score)
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return history.Outcome{}, err
		}
		var out history.Outcome
		err := h.db.Update(func(txn *badger.Txn) error {
			entries, err := readHistory(txn)
			if err != nil {
				if !errors.Is(err, ErrCorrupt) {
					return err
				}
				h.cfg.log.Warn(ctx, "replacing unreadable risk history", logger.Error(err))
				entries = nil
			}
			next, ok := history.Append(entries, entry, h.cfg.limit)
			out = history.NewOutcome(entries, false)
			if !ok {
				return nil
			}
			data, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("marshal history: %w", err)
			}
			if err := txn.Set([]byte(historyKey), data); err != nil {
				return err
			}
			out.Appended = true
			return nil
		})
		switch {
		case err == nil:
			return out, nil
		case errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries:
			continue
		default:
			return history.Outcome{}, fmt.Errorf("record history: %w", err)
		}
	}
}

func readHistory(txn *badger.Txn) ([]model.RiskHistoryEntry, error) {
	item, err := txn.Get([]byte(historyKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []model.RiskHistoryEntry
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &entries); err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil
	})
	return entries, err
}
