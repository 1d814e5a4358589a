package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/pkg/logger"
)

// UntitledSchedule replaces an empty title on insert.
const UntitledSchedule = "(untitled)"

// ScheduleBook stores the user's schedule items in insertion order.
type ScheduleBook struct {
	file *jsonFile
	cfg  storeConfig
}

// NewScheduleBook returns a schedule book backed by path.
func NewScheduleBook(path string, opts ...Option) *ScheduleBook {
	return &ScheduleBook{file: newJSONFile("schedules", path), cfg: newStoreConfig(opts)}
}

// scheduleRecords is the stored file as read. items holds the records that
// decode as schedule items and at their positions in raw.
type scheduleRecords struct {
	raw   []json.RawMessage
	items []model.ScheduleItem
	at    []int
}

// load reads the book. Corrupt content loads as empty; other read failures
// are returned.
func (b *ScheduleBook) load(ctx context.Context) (scheduleRecords, error) {
	var recs scheduleRecords
	if _, err := b.file.read(&recs.raw); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return recs, err
		}
		b.cfg.log.Warn(ctx, "schedule book unreadable, starting empty", logger.Error(err))
		return scheduleRecords{}, nil
	}

	recs.items = make([]model.ScheduleItem, 0, len(recs.raw))
	for i, r := range recs.raw {
		var item model.ScheduleItem
		if err := json.Unmarshal(r, &item); err != nil {
			b.cfg.log.Debug(ctx, "skipping unreadable schedule record", logger.Error(err))
			continue
		}
		recs.items = append(recs.items, item)
		recs.at = append(recs.at, i)
	}
	return recs, nil
}

// List returns the stored items. Records that are not JSON objects are
// skipped, so indexes refer to the returned order. Skipped records and
// unknown fields stay in the file across Add and Delete.
func (b *ScheduleBook) List(ctx context.Context) ([]model.ScheduleItem, error) {
	recs, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return recs.items, nil
}

// Add appends item and returns it as stored.
func (b *ScheduleBook) Add(ctx context.Context, item model.ScheduleItem) (model.ScheduleItem, error) {
	if item.Title == "" {
		item.Title = UntitledSchedule
	}
	err := b.file.update(func() error {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal schedule: %w", err)
		}
		recs, err := b.load(ctx)
		if err != nil {
			return err
		}
		return b.file.write(append(recs.raw, data))
	})
	if err != nil {
		return model.ScheduleItem{}, fmt.Errorf("add schedule: %w", err)
	}
	return item, nil
}

// Delete removes the item at index and returns it. An index outside the
// listed items returns ErrNotFound.
func (b *ScheduleBook) Delete(ctx context.Context, index int) (model.ScheduleItem, error) {
	var removed model.ScheduleItem
	err := b.file.update(func() error {
		recs, err := b.load(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(recs.items) {
			return fmt.Errorf("%w: index %d of %d", ErrNotFound, index, len(recs.items))
		}
		removed = recs.items[index]
		pos := recs.at[index]
		return b.file.write(append(recs.raw[:pos:pos], recs.raw[pos+1:]...))
	})
	if err != nil {
		return model.ScheduleItem{}, err
	}
	return removed, nil
}
