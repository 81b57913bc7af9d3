package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"datarecv/internal/dab"
	"datarecv/internal/logging"
	"datarecv/internal/reassembly"
)

// ErrEnsembleNotReady is returned when the service table never settles
// before the acquisition timeout or the end of input.
var ErrEnsembleNotReady = errors.New("ensemble not ready")

// Backend builds the collaborators for one run.
type Backend struct {
	NewSource      func(samples *dab.SampleQueue) (dab.SampleSource, error)
	NewDemodulator func(samples *dab.SampleQueue, symbols *dab.SymbolQueue) (dab.Demodulator, error)
	NewDecoder     func(symbols *dab.SymbolQueue) (dab.EnsembleDecoder, error)
}

// Options configures a Pipeline.
type Options struct {
	// Address is the packet address reassembled on every selected service.
	Address   uint16
	Frequency dab.Frequency
	AutoGain  bool
	// AcquireTimeout bounds ensemble acquisition; zero waits indefinitely.
	AcquireTimeout  time.Duration
	SampleQueueSize int
	SymbolQueueSize int
	// MaxServices caps the number of subscriptions; zero means no cap.
	MaxServices int
	Strip       reassembly.FixedOffsetStrip
	Store       reassembly.Store
	Observer    reassembly.Observer
	Backend     Backend
	Logger      *slog.Logger
}

// Pipeline runs one reception session.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns a pipeline ready to Run.
func New(opts Options) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, errors.New("pipeline store required")
	}
	if opts.Backend.NewSource == nil || opts.Backend.NewDemodulator == nil || opts.Backend.NewDecoder == nil {
		return nil, errors.New("pipeline backend incomplete")
	}
	if err := opts.Strip.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxServices < 0 {
		return nil, fmt.Errorf("max services must be non-negative (got %d)", opts.MaxServices)
	}
	return &Pipeline{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

// Run receives until ctx is cancelled or the input ends. It returns nil on
// either, ErrEnsembleNotReady when acquisition fails, and the first worker
// error otherwise. Partial messages in flight at shutdown are dropped.
func (p *Pipeline) Run(ctx context.Context) error {
	samples := dab.NewQueue[dab.Sample](p.opts.SampleQueueSize)
	symbols := dab.NewQueue[dab.SymbolBlock](p.opts.SymbolQueueSize)

	src, err := p.opts.Backend.NewSource(samples)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}
	if p.opts.AutoGain {
		if err := src.Enable(dab.AutomaticGainControl); err != nil {
			return fmt.Errorf("enable gain control: %w", err)
		}
	}
	if err := src.Tune(p.opts.Frequency); err != nil {
		return fmt.Errorf("tune %s: %w", p.opts.Frequency, err)
	}
	demod, err := p.opts.Backend.NewDemodulator(samples, symbols)
	if err != nil {
		return fmt.Errorf("create demodulator: %w", err)
	}
	dec, err := p.opts.Backend.NewDecoder(symbols)
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return src.Run(gctx) })
	g.Go(func() error { return demod.Run(gctx) })

	p.logger.Info("acquiring ensemble",
		logging.String("frequency", p.opts.Frequency.String()),
		logging.Int("packet_address", int(p.opts.Address)),
	)
	started := time.Now()
	if err := p.acquire(gctx, dec); err != nil {
		cancel()
		werr := g.Wait()
		if ctx.Err() != nil {
			return nil
		}
		if werr != nil && !errors.Is(werr, context.Canceled) {
			return fmt.Errorf("%w: %w", err, werr)
		}
		return err
	}
	p.logger.Info("ensemble acquired",
		logging.String("label", dec.Label()),
		logging.Int("services", len(dec.Services())),
		logging.Duration("elapsed", time.Since(started)),
	)

	if err := p.register(gctx, g, dec); err != nil {
		cancel()
		_ = g.Wait()
		return err
	}

	for dec.Update(gctx) {
	}

	werr := g.Wait()
	if ctx.Err() != nil {
		p.logger.Info("reception stopped")
		return nil
	}
	if werr != nil {
		return werr
	}
	p.logger.Info("input ended")
	return nil
}

func (p *Pipeline) acquire(ctx context.Context, dec dab.EnsembleDecoder) error {
	acqCtx := ctx
	if p.opts.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acqCtx, cancel = context.WithTimeout(ctx, p.opts.AcquireTimeout)
		defer cancel()
	}
	for !dec.Ready() {
		if !dec.Update(acqCtx) {
			if errors.Is(acqCtx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: no stable service table after %s", ErrEnsembleNotReady, p.opts.AcquireTimeout)
			}
			return fmt.Errorf("%w: input ended during acquisition", ErrEnsembleNotReady)
		}
	}
	return nil
}

// register subscribes every matching service and starts its reassembler.
func (p *Pipeline) register(ctx context.Context, g *errgroup.Group, dec dab.EnsembleDecoder) error {
	services := dec.Services()
	ids := SelectServices(services, p.opts.MaxServices)
	if len(ids) == 0 {
		logging.WarnWithContext(p.logger, "no IPDT data service in ensemble", "no_matching_service",
			logging.String("label", dec.Label()),
			logging.Int("services", len(services)),
			logging.String(logging.FieldImpact, "no messages will be stored"),
			logging.String(logging.FieldErrorHint, "check the configured channel"),
		)
		return nil
	}

	for _, id := range ids {
		r, err := reassembly.New(reassembly.Options{
			Service:  id,
			Address:  p.opts.Address,
			Strip:    p.opts.Strip,
			Store:    p.opts.Store,
			Observer: p.opts.Observer,
			Logger:   p.opts.Logger,
		})
		if err != nil {
			return fmt.Errorf("create reassembler for %s: %w", id, err)
		}
		in, err := dec.Subscribe(ctx, id)
		if err != nil {
			logging.ErrorWithContext(p.logger, "service subscription failed", "subscribe_failed",
				logging.String(logging.FieldService, id.String()),
				logging.Error(err),
			)
			continue
		}
		p.logger.Info("service registered",
			logging.String(logging.FieldService, id.String()),
			logging.String("label", services[id].Label),
		)
		g.Go(func() error { return r.Run(ctx, in) })
	}
	return nil
}
