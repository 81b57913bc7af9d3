package msgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"datarecv/internal/logging"
)

const (
	DefaultTypeTag  = "IPDT"
	DefaultCategory = "0"

	lockName = ".dab-datarecv.lock"
)

// ErrLocked is returned when another receiver holds the output directory.
var ErrLocked = errors.New("output directory locked by another receiver")

// Options configures a Store.
type Options struct {
	Dir      string
	TypeTag  string
	Category string
	// IndexPath enables the SQLite index when non-empty.
	IndexPath string
	Logger    *slog.Logger
}

// Store writes message records into a directory. Each run gets its own
// subdirectory of the locked output directory, named by the run ID, so IDs
// restarting at 1 never collide with an earlier run's records.
type Store struct {
	root     string
	dir      string
	typeTag  string
	category string
	runID    string
	seq      *Sequence
	lock     *flock.Flock
	index    *Index
	logger   *slog.Logger
}

// Open prepares dir and takes an exclusive lock on it.
func Open(opts Options) (*Store, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("output directory required")
	}
	typeTag := opts.TypeTag
	if typeTag == "" {
		typeTag = DefaultTypeTag
	}
	category := opts.Category
	if category == "" {
		category = DefaultCategory
	}
	if strings.ContainsAny(typeTag, "\r\n") || strings.ContainsAny(category, "\r\n") {
		return nil, errors.New("type tag and category must be single-line")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	previous, err := RunDirs(dir)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	runID, err := uuid.NewV7()
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	runDir := filepath.Join(dir, runID.String())
	if err := os.Mkdir(runDir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	s := &Store{
		root:     dir,
		dir:      runDir,
		typeTag:  typeTag,
		category: category,
		runID:    runID.String(),
		seq:      &Sequence{},
		lock:     lock,
		logger:   logging.NewComponentLogger(opts.Logger, "msgstore"),
	}
	if opts.IndexPath != "" {
		index, err := OpenIndex(opts.IndexPath)
		if err != nil {
			_ = lock.Unlock()
			return nil, err
		}
		s.index = index
	}
	s.logger.Info("message store ready",
		logging.String("output_dir", dir),
		logging.String("run_dir", runDir),
		logging.String("run_id", s.runID),
		logging.Int("previous_runs", len(previous)),
		logging.Bool("indexed", s.index != nil),
	)
	return s, nil
}

// Root returns the locked output directory.
func (s *Store) Root() string { return s.root }

// Dir returns this run's record directory.
func (s *Store) Dir() string { return s.dir }

// RunID names this run's record directory and its index rows.
func (s *Store) RunID() string { return s.runID }

// Sequence exposes the ID generator.
func (s *Store) Sequence() *Sequence { return s.seq }

// Path returns the record file path for id.
func (s *Store) Path(id uint64) string {
	return RecordPath(s.dir, id)
}

// RecordPath names the record file for id inside a run directory.
func RecordPath(dir string, id uint64) string {
	return filepath.Join(dir, strconv.FormatUint(id, 10))
}

// RunDirs lists the run directories under root, oldest first. Run IDs are
// time-ordered UUIDs, so name order is creation order.
func RunDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list run directories: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		dirs = append(dirs, filepath.Join(root, e.Name()))
	}
	return dirs, nil
}

// Save assigns the next ID and writes message under it. The ID is consumed
// even when the write fails.
func (s *Store) Save(ctx context.Context, message []byte) (uint64, error) {
	id := s.seq.Next()
	if err := ctx.Err(); err != nil {
		return id, err
	}
	record := Record{ID: id, TypeTag: s.typeTag, Category: s.category, Data: message}
	path := s.Path(id)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return id, fmt.Errorf("create record %d: %w", id, err)
	}
	if _, err := f.Write(record.Marshal()); err != nil {
		_ = f.Close()
		return id, fmt.Errorf("write record %d: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return id, fmt.Errorf("close record %d: %w", id, err)
	}

	if s.index != nil {
		entry := IndexEntry{
			RunID:    s.runID,
			ID:       id,
			Path:     path,
			Size:     len(message),
			TypeTag:  s.typeTag,
			Category: s.category,
		}
		if err := s.index.Insert(ctx, entry); err != nil {
			logging.WarnWithContext(s.logger, "record not indexed", "index_insert_failed",
				logging.Uint64("message_id", id),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record file written but missing from listings"),
			)
		}
	}
	return id, nil
}

// Close releases the index and the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}
