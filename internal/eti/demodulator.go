package eti

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"datarecv/internal/dab"
	"datarecv/internal/logging"
)

// Stats counts demodulator events.
type Stats struct {
	Frames      uint64
	SyncLosses  uint64
	BadHeaders  uint64
	ModeErrors  uint64
	SignalFlags uint64
}

// Demodulator reads opaque sample chunks, locks onto ETI frames and
// pushes one symbol block per frame.
type Demodulator struct {
	samples *dab.SampleQueue
	symbols *dab.SymbolQueue
	mode    dab.TransmissionMode
	logger  *slog.Logger

	buf    []byte
	locked bool

	frames      atomic.Uint64
	syncLosses  atomic.Uint64
	badHeaders  atomic.Uint64
	modeErrors  atomic.Uint64
	signalFlags atomic.Uint64
}

// NewDemodulator wires a demodulator between the two queues. Frames whose
// transmission mode differs from mode are dropped; a zero mode accepts any.
func NewDemodulator(samples *dab.SampleQueue, symbols *dab.SymbolQueue, mode dab.TransmissionMode, logger *slog.Logger) *Demodulator {
	return &Demodulator{
		samples: samples,
		symbols: symbols,
		mode:    mode,
		logger:  logging.NewComponentLogger(logger, "eti"),
		buf:     make([]byte, 0, 2*FrameLength),
	}
}

// Stats returns a snapshot of the counters. It is safe to call while Run
// is active.
func (d *Demodulator) Stats() Stats {
	return Stats{
		Frames:      d.frames.Load(),
		SyncLosses:  d.syncLosses.Load(),
		BadHeaders:  d.badHeaders.Load(),
		ModeErrors:  d.modeErrors.Load(),
		SignalFlags: d.signalFlags.Load(),
	}
}

// Run consumes samples until the sample queue is closed and drained or ctx
// is cancelled. The symbol queue is closed on return.
func (d *Demodulator) Run(ctx context.Context) error {
	defer d.symbols.Close()
	for {
		chunk, err := d.samples.Pop(ctx)
		if err != nil {
			if errors.Is(err, dab.ErrQueueClosed) {
				d.logger.Debug("sample input ended", logging.Uint64("frames", d.frames.Load()))
				return nil
			}
			return err
		}
		d.buf = append(d.buf, chunk...)
		if err := d.drain(ctx); err != nil {
			return err
		}
	}
}

func (d *Demodulator) drain(ctx context.Context) error {
	start := 0
	for len(d.buf)-start >= FrameLength {
		if !HasSync(d.buf[start:]) {
			if d.locked {
				d.locked = false
				d.syncLosses.Add(1)
				d.logger.Debug("frame sync lost", logging.Uint64("frames", d.frames.Load()))
			}
			start++
			continue
		}
		frame, err := ParseFrame(d.buf[start : start+FrameLength])
		switch {
		case errors.Is(err, ErrSignalError):
			// Sync is intact; the front end flagged the frame.
			d.signalFlags.Add(1)
			start += FrameLength
			continue
		case err != nil:
			d.badHeaders.Add(1)
			start++
			continue
		}
		if d.mode != 0 && frame.Mode != d.mode {
			if d.modeErrors.Add(1) == 1 {
				logging.WarnWithContext(d.logger, "dropping frames with unexpected transmission mode", "eti_mode_mismatch",
					logging.String("expected", d.mode.String()),
					logging.String("received", frame.Mode.String()),
					logging.String(logging.FieldImpact, "no data is decoded while the mode differs"),
					logging.String(logging.FieldErrorHint, "check receiver.transmission_mode"),
				)
			}
			start += FrameLength
			continue
		}
		if !d.locked {
			d.locked = true
			d.logger.Debug("frame sync acquired", logging.Int("frame_count", int(frame.Count)))
		}
		if err := d.symbols.Push(ctx, frame.SymbolBlock()); err != nil {
			return err
		}
		d.frames.Add(1)
		start += FrameLength
	}
	d.buf = append(d.buf[:0], d.buf[start:]...)
	return nil
}
