package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"datarecv/internal/config"
	"datarecv/internal/dab"
	"datarecv/internal/ensemble"
	"datarecv/internal/eti"
	"datarecv/internal/metrics"
	"datarecv/internal/reassembly"
	"datarecv/internal/source"
)

// NewBackend builds the production collaborators described by cfg. When m
// is non-nil the demodulator and decoder counters are exported through it.
func NewBackend(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (Backend, error) {
	kind, err := source.ParseKind(cfg.Source.Kind)
	if err != nil {
		return Backend{}, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return Backend{}, err
	}
	srcCfg := source.Config{
		Kind:    kind,
		Command: cfg.Source.Command,
		Args:    cfg.Source.Args,
		Path:    cfg.Source.Path,
		Address: cfg.Source.Address,
	}

	return Backend{
		NewSource: func(samples *dab.SampleQueue) (dab.SampleSource, error) {
			return source.New(srcCfg, samples, logger)
		},
		NewDemodulator: func(samples *dab.SampleQueue, symbols *dab.SymbolQueue) (dab.Demodulator, error) {
			demod := eti.NewDemodulator(samples, symbols, mode, logger)
			if m != nil {
				if err := exportDemodulator(m, demod); err != nil {
					return nil, err
				}
			}
			return demod, nil
		},
		NewDecoder: func(symbols *dab.SymbolQueue) (dab.EnsembleDecoder, error) {
			dec := ensemble.NewDecoder(symbols, ensemble.Options{
				SettleFrames:       cfg.Receiver.SettleFrames,
				SubscriptionBuffer: cfg.Receiver.SubscriptionBuffer,
				Logger:             logger,
			})
			if m != nil {
				if err := exportDecoder(m, dec, symbols); err != nil {
					return nil, err
				}
			}
			return dec, nil
		},
	}, nil
}

// OptionsFromConfig fills the tuning, sizing and strip settings of Options
// from cfg. Store, Observer, Backend and Logger are left to the caller.
func OptionsFromConfig(cfg *config.Config, address uint16) (Options, error) {
	freq, err := cfg.Frequency()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Address:         address,
		Frequency:       freq,
		AutoGain:        cfg.Receiver.AutoGain,
		AcquireTimeout:  time.Duration(cfg.Receiver.AcquireTimeoutSeconds) * time.Second,
		SampleQueueSize: cfg.Receiver.SampleQueueSize,
		SymbolQueueSize: cfg.Receiver.SymbolQueueSize,
		MaxServices:     cfg.Receiver.MaxServices,
		Strip: reassembly.FixedOffsetStrip{
			Offset: cfg.Reassembly.StripOffset,
			Length: cfg.Reassembly.StripLength,
		},
	}, nil
}

func exportDemodulator(m *metrics.Metrics, demod *eti.Demodulator) error {
	counters := []struct {
		name, help string
		read       func(eti.Stats) uint64
	}{
		{"frames_total", "ETI frames decoded", func(s eti.Stats) uint64 { return s.Frames }},
		{"sync_losses_total", "Times frame synchronisation was lost", func(s eti.Stats) uint64 { return s.SyncLosses }},
		{"bad_headers_total", "Sync matches rejected by the header check", func(s eti.Stats) uint64 { return s.BadHeaders }},
		{"mode_errors_total", "Frames dropped for an unexpected transmission mode", func(s eti.Stats) uint64 { return s.ModeErrors }},
		{"signal_flags_total", "Frames flagged by the front end", func(s eti.Stats) uint64 { return s.SignalFlags }},
	}
	for _, c := range counters {
		read := c.read
		if err := m.AddCounterFunc("eti", c.name, c.help, func() float64 {
			return float64(read(demod.Stats()))
		}); err != nil {
			return fmt.Errorf("register eti %s: %w", c.name, err)
		}
	}
	return nil
}

func exportDecoder(m *metrics.Metrics, dec *ensemble.Decoder, symbols *dab.SymbolQueue) error {
	counters := []struct {
		name, help string
		read       func(ensemble.Stats) uint64
	}{
		{"blocks_total", "Symbol blocks consumed", func(s ensemble.Stats) uint64 { return s.Blocks }},
		{"bad_fibs_total", "FIBs rejected by the CRC check", func(s ensemble.Stats) uint64 { return s.BadFIBs }},
		{"packets_delivered_total", "Packets handed to subscribers", func(s ensemble.Stats) uint64 { return s.PacketsDelivered }},
	}
	for _, c := range counters {
		read := c.read
		if err := m.AddCounterFunc("ensemble", c.name, c.help, func() float64 {
			return float64(read(dec.Stats()))
		}); err != nil {
			return fmt.Errorf("register ensemble %s: %w", c.name, err)
		}
	}
	if err := m.AddGaugeFunc("ensemble", "services", "Services in the decoded ensemble", func() float64 {
		return float64(len(dec.Services()))
	}); err != nil {
		return fmt.Errorf("register ensemble services: %w", err)
	}
	if err := m.AddGaugeFunc("ensemble", "symbol_queue_length", "Symbol blocks waiting to be decoded", func() float64 {
		return float64(symbols.Len())
	}); err != nil {
		return fmt.Errorf("register symbol queue length: %w", err)
	}
	return nil
}
