// Package source provides the sample sources that feed the receive
// pipeline: an external ETI front end, a recorded ETI file, or a TCP
// stream.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"datarecv/internal/dab"
)

// DefaultChunkSize matches one ETI(NI) frame.
const DefaultChunkSize = 6144

// Kind selects a source implementation.
type Kind string

const (
	KindCommand Kind = "command"
	KindFile    Kind = "file"
	KindTCP     Kind = "tcp"
)

// ParseKind validates a configured source kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindCommand, "":
		return KindCommand, nil
	case KindFile:
		return KindFile, nil
	case KindTCP:
		return KindTCP, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", value)
	}
}

// Config selects and parameterises a source.
type Config struct {
	Kind    Kind
	Command string
	Args    []string
	Path    string
	Address string
	// ChunkSize bounds each sample pushed to the queue.
	ChunkSize int
}

// New builds the source described by cfg writing into samples.
func New(cfg Config, samples *dab.SampleQueue, logger *slog.Logger) (dab.SampleSource, error) {
	if samples == nil {
		return nil, errors.New("sample queue required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	switch cfg.Kind {
	case KindCommand, "":
		return NewCommand(cfg.Command, cfg.Args, samples, cfg.ChunkSize, logger)
	case KindFile:
		return NewFile(cfg.Path, samples, cfg.ChunkSize, logger)
	case KindTCP:
		return NewTCP(cfg.Address, samples, cfg.ChunkSize, logger)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// pump copies r into the queue in chunks until EOF.
func pump(ctx context.Context, r io.Reader, samples *dab.SampleQueue, chunkSize int) (int64, error) {
	var total int64
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			chunk := make(dab.Sample, n)
			copy(chunk, buf[:n])
			if pushErr := samples.Push(ctx, chunk); pushErr != nil {
				return total, pushErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			return total, err
		}
	}
}

// settings holds the option and tuning state shared by all sources.
type settings struct {
	agc       bool
	frequency dab.Frequency
}

func (s *settings) enable(opt dab.Option) error {
	switch opt {
	case dab.AutomaticGainControl:
		s.agc = true
		return nil
	default:
		return fmt.Errorf("unsupported option %s", opt)
	}
}
