package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/zerodeadline/pkg/metrics"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// jsonFile is a JSON document replaced atomically on every write. Writers
// are serialized by a mutex within the process and by an flock on a sibling
// ".lock" file across processes.
type jsonFile struct {
	name     string
	path     string
	mu       sync.Mutex
	readFile func(name string) ([]byte, error)
}

func newJSONFile(name, path string) *jsonFile {
	return &jsonFile{name: name, path: path, readFile: os.ReadFile}
}

// update runs fn while holding both locks.
func (f *jsonFile) update(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), dirPerm); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	lf, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, filePerm)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lf.Close()

	if err := lockFile(lf); err != nil {
		return fmt.Errorf("lock %s: %w", f.path, err)
	}
	defer func() { _ = unlockFile(lf) }()

	return fn()
}

// read decodes the file into v. A missing file reports false and no error.
// Undecodable content returns ErrCorrupt.
func (f *jsonFile) read(v any) (bool, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency(f.name, "read", msSince(start)) }()

	data, err := f.readFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return true, nil
}

// write replaces the file with v through a temp file in the same directory.
func (f *jsonFile) write(v any) error {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency(f.name, "write", msSince(start)) }()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", f.name, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", f.name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", f.name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.name, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", f.name, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", f.name, err)
	}

	success = true
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
