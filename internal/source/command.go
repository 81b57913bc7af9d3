package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"datarecv/internal/channels"
	"datarecv/internal/dab"
	"datarecv/internal/logging"
)

// DefaultCommand is the ETI front end launched when none is configured.
const DefaultCommand = "eti-cmdline-rtlsdr"

// maxLoggedLine caps how much of one front end stderr line reaches the log.
const maxLoggedLine = 512

// Command runs an external front end that writes ETI frames to stdout.
type Command struct {
	binary    string
	args      []string
	samples   *dab.SampleQueue
	chunkSize int
	logger    *slog.Logger

	settings
}

// NewCommand returns a command source. Extra args are passed before the
// channel and gain flags.
func NewCommand(binary string, args []string, samples *dab.SampleQueue, chunkSize int, logger *slog.Logger) (*Command, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultCommand
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Command{
		binary:    binary,
		args:      append([]string(nil), args...),
		samples:   samples,
		chunkSize: chunkSize,
		logger:    logging.NewComponentLogger(logger, "source"),
	}, nil
}

// Enable switches on a front end feature.
func (c *Command) Enable(opt dab.Option) error { return c.enable(opt) }

// Tune records the channel to pass to the front end. The frequency must be
// a Band III channel centre.
func (c *Command) Tune(freq dab.Frequency) error {
	if _, ok := channels.Name(freq); !ok {
		return fmt.Errorf("no band III channel at %s", freq)
	}
	c.frequency = freq
	return nil
}

// Args returns the full argument list used to launch the front end.
func (c *Command) Args() []string {
	args := append([]string(nil), c.args...)
	if name, ok := channels.Name(c.frequency); ok {
		args = append(args, "-C", name)
	}
	if c.agc {
		args = append(args, "-Q")
	}
	return args
}

// Run launches the front end and streams its stdout into the sample queue
// until the process exits or ctx is cancelled.
func (c *Command) Run(ctx context.Context) error {
	defer c.samples.Close()
	if c.frequency == 0 {
		return errors.New("source not tuned")
	}

	args := c.Args()
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.binary, err)
	}
	c.logger.Info("front end started",
		logging.String("command", c.binary),
		logging.String("args", strings.Join(args, " ")),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logStderr(stderr)
	}()

	total, pumpErr := pump(ctx, stdout, c.samples, c.chunkSize)
	if pumpErr != nil {
		_ = cmd.Process.Kill()
	}
	wg.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if pumpErr != nil {
		return fmt.Errorf("read front end output: %w", pumpErr)
	}
	if waitErr != nil {
		return fmt.Errorf("front end exited: %w", waitErr)
	}
	c.logger.Info("front end finished", logging.Int64("bytes", total))
	return nil
}

// logStderr forwards front end diagnostics line by line. It reads until the
// pipe closes whatever the line lengths, so the child never blocks on stderr.
func (c *Command) logStderr(r io.Reader) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if len(line) > maxLoggedLine {
				line = line[:maxLoggedLine] + "..."
			}
			c.logger.Debug("front end output", logging.String("line", line))
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
			c.logger.Debug("front end stderr unreadable", logging.Error(err))
			_, _ = io.Copy(io.Discard, r)
		}
		return
	}
}
