package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/zerodeadline/internal/domain/history"
	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/pkg/logger"
)

// HistoryFile keeps the risk history as a JSON array in a single file.
type HistoryFile struct {
	file *jsonFile
	cfg  storeConfig
}

var _ history.Store = (*HistoryFile)(nil)

// NewHistoryFile returns a history store backed by path.
func NewHistoryFile(path string, opts ...Option) *HistoryFile {
	return &HistoryFile{file: newJSONFile("history_file", path), cfg: newStoreConfig(opts)}
}

// Load implements history.Store.
func (h *HistoryFile) Load(ctx context.Context) []model.RiskHistoryEntry {
	return h.load(ctx)
}

func (h *HistoryFile) load(ctx context.Context) []model.RiskHistoryEntry {
	var entries []model.RiskHistoryEntry
	if _, err := h.file.read(&entries); err != nil {
		level := h.cfg.log.Warn
		if !errors.Is(err, ErrCorrupt) {
			level = h.cfg.log.Error
		}
		level(ctx, "risk history unreadable, starting empty", logger.Error(err))
		return nil
	}
	return entries
}

// Record implements history.Store. Corrupt content is replaced; any other
// read failure aborts without writing.
func (h *HistoryFile) Record(ctx context.Context, score int) (history.Outcome, error) {
	var out history.Outcome
	err := h.file.update(func() error {
		var entries []model.RiskHistoryEntry
		if _, err := h.file.read(&entries); err != nil {
			if !errors.Is(err, ErrCorrupt) {
				return fmt.Errorf("read history: %w", err)
			}
			h.cfg.log.Warn(ctx, "replacing unreadable risk history", logger.Error(err))
			entries = nil
		}
		next, ok := history.Append(entries, model.NewRiskHistoryEntry(h.cfg.now(), score), h.cfg.limit)
		out = history.NewOutcome(entries, false)
		if !ok {
			return nil
		}
		if err := h.file.write(next); err != nil {
			return err
		}
		out.Appended = true
		return nil
	})
	if err != nil {
		return history.Outcome{}, err
	}
	return out, nil
}
