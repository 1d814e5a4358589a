package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/zerodeadline/internal/domain/model"
	"github.com/okian/zerodeadline/pkg/logger"
)

// StressLog is the append-only list of stress samples.
type StressLog struct {
	file *jsonFile
	cfg  storeConfig
}

// NewStressLog returns a stress log backed by path.
func NewStressLog(path string, opts ...Option) *StressLog {
	return &StressLog{file: newJSONFile("stress_log", path), cfg: newStoreConfig(opts)}
}

// Load returns every readable sample in stored order. Records whose stress is
// not numeric are skipped; records without a readable time get the load time.
func (s *StressLog) Load(ctx context.Context) []model.StressSample {
	raw, err := s.loadRaw(ctx)
	if err != nil {
		s.cfg.log.Error(ctx, "failed to read stress log", logger.Error(err))
		return nil
	}
	now := s.cfg.now()

	samples := make([]model.StressSample, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var sample model.StressSample
		if err := json.Unmarshal(r, &sample); err != nil {
			skipped++
			continue
		}
		if sample.Timestamp.IsZero() {
			sample.Timestamp = now
		}
		samples = append(samples, sample)
	}
	if skipped > 0 {
		s.cfg.log.Debug(ctx, "skipped unreadable stress records", logger.Int("count", skipped))
	}
	return samples
}

// loadRaw keeps records undecoded so rewriting the log preserves them.
// Corrupt content loads as empty; other read failures are returned.
func (s *StressLog) loadRaw(ctx context.Context) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if _, err := s.file.read(&raw); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		s.cfg.log.Warn(ctx, "stress log unreadable, starting empty", logger.Error(err))
		return nil, nil
	}
	return raw, nil
}

// Append adds sample to the log. Samples outside [1, 10] are rejected with
// ErrInvalidSample. A zero timestamp is set to the current time. A log that
// exists but cannot be read is left as is and the error returned.
func (s *StressLog) Append(ctx context.Context, sample model.StressSample) (model.StressSample, error) {
	if !sample.Valid() {
		return model.StressSample{}, fmt.Errorf("%w: stress %v outside [%v, %v]",
			ErrInvalidSample, sample.Stress, model.MinStress, model.MaxStress)
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.cfg.now()
	}

	err := s.file.update(func() error {
		data, err := json.Marshal(sample)
		if err != nil {
			return fmt.Errorf("marshal sample: %w", err)
		}
		raw, err := s.loadRaw(ctx)
		if err != nil {
			return fmt.Errorf("read stress log: %w", err)
		}
		return s.file.write(append(raw, data))
	})
	if err != nil {
		return model.StressSample{}, err
	}
	return sample, nil
}
