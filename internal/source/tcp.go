package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"datarecv/internal/dab"
	"datarecv/internal/logging"
)

const dialTimeout = 10 * time.Second

// TCP reads an ETI stream served over a TCP connection.
type TCP struct {
	address   string
	samples   *dab.SampleQueue
	chunkSize int
	logger    *slog.Logger

	settings
}

// NewTCP returns a source connecting to address (host:port).
func NewTCP(address string, samples *dab.SampleQueue, chunkSize int, logger *slog.Logger) (*TCP, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("source address required")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &TCP{
		address:   address,
		samples:   samples,
		chunkSize: chunkSize,
		logger:    logging.NewComponentLogger(logger, "source"),
	}, nil
}

func (s *TCP) Enable(opt dab.Option) error { return s.enable(opt) }

func (s *TCP) Tune(freq dab.Frequency) error {
	s.frequency = freq
	return nil
}

// Run connects and streams until the peer closes or ctx is cancelled.
func (s *TCP) Run(ctx context.Context) error {
	defer s.samples.Close()
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("connect %s: %w", s.address, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.logger.Info("connected to stream", logging.String("address", s.address))
	total, err := pump(ctx, conn, s.samples, s.chunkSize)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	s.logger.Info("stream closed by peer", logging.Int64("bytes", total))
	return nil
}
