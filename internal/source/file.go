package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"datarecv/internal/dab"
	"datarecv/internal/logging"
)

// File replays a recorded ETI stream. Tuning has no effect.
type File struct {
	path      string
	samples   *dab.SampleQueue
	chunkSize int
	logger    *slog.Logger

	settings
}

// NewFile returns a source reading path.
func NewFile(path string, samples *dab.SampleQueue, chunkSize int, logger *slog.Logger) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("source file path required")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &File{
		path:      path,
		samples:   samples,
		chunkSize: chunkSize,
		logger:    logging.NewComponentLogger(logger, "source"),
	}, nil
}

func (f *File) Enable(opt dab.Option) error { return f.enable(opt) }

func (f *File) Tune(freq dab.Frequency) error {
	f.frequency = freq
	return nil
}

// Run streams the file into the sample queue.
func (f *File) Run(ctx context.Context) error {
	defer f.samples.Close()
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	f.logger.Info("replaying recording", logging.String("path", f.path))
	total, err := pump(ctx, file, f.samples, f.chunkSize)
	if err != nil {
		return err
	}
	f.logger.Info("recording exhausted", logging.Int64("bytes", total))
	return nil
}
