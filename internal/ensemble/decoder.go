// Package ensemble maintains the service table of the tuned ensemble and
// routes packet-mode sub-channel data to subscribers.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"datarecv/internal/dab"
	"datarecv/internal/fic"
	"datarecv/internal/logging"
	"datarecv/internal/packet"
)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrNotPacketMode  = errors.New("service has no packet-mode component")
	ErrStopped        = errors.New("decoder stopped")
)

// DefaultSettleFrames is how many consecutive blocks must pass without new
// service information before the table is considered complete.
const DefaultSettleFrames = 100

// Options tune a Decoder.
type Options struct {
	SettleFrames int
	// SubscriptionBuffer is the channel capacity handed to subscribers.
	SubscriptionBuffer int
	Logger             *slog.Logger
}

type subscription struct {
	ctx        context.Context
	service    dab.ServiceID
	subChannel uint8
	ch         chan []byte
}

// Stats counts decoder activity.
type Stats struct {
	Blocks           uint64
	BadFIBs          uint64
	PacketsDelivered uint64
}

// Decoder implements dab.EnsembleDecoder on top of a symbol queue.
type Decoder struct {
	symbols *dab.SymbolQueue
	db      *fic.Database
	opts    Options
	logger  *slog.Logger

	mu          sync.Mutex
	subs        []*subscription
	stopped     bool
	lastVersion uint64
	stableFor   int

	blocks    atomic.Uint64
	badFIBs   atomic.Uint64
	delivered atomic.Uint64
}

// NewDecoder returns a decoder reading from symbols.
func NewDecoder(symbols *dab.SymbolQueue, opts Options) *Decoder {
	if opts.SettleFrames <= 0 {
		opts.SettleFrames = DefaultSettleFrames
	}
	if opts.SubscriptionBuffer < 0 {
		opts.SubscriptionBuffer = 0
	}
	return &Decoder{
		symbols: symbols,
		db:      fic.NewDatabase(),
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "ensemble"),
	}
}

// Ready reports whether the ensemble label is known, at least one service
// is present, and the table has been stable for the settle period.
func (d *Decoder) Ready() bool {
	if _, ok := d.db.Label(); !ok {
		return false
	}
	if len(d.db.ServiceIDs()) == 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stableFor >= d.opts.SettleFrames
}

// Label returns the ensemble label, or "" while unknown.
func (d *Decoder) Label() string {
	label, _ := d.db.Label()
	return label
}

// Services returns a snapshot of the service table.
func (d *Decoder) Services() map[dab.ServiceID]*dab.Service {
	return d.db.Services()
}

// Stats returns the current counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		Blocks:           d.blocks.Load(),
		BadFIBs:          d.badFIBs.Load(),
		PacketsDelivered: d.delivered.Load(),
	}
}

// Subscribe registers interest in a packet-mode service. Each packet of the
// service's sub-channel is sent on the returned channel in arrival order.
// The channel is closed when ctx ends or the decoder stops.
func (d *Decoder) Subscribe(ctx context.Context, id dab.ServiceID) (<-chan []byte, error) {
	svc, ok := d.db.Services()[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, id)
	}
	comp := svc.PacketComponent()
	if comp == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotPacketMode, id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil, ErrStopped
	}
	sub := &subscription{
		ctx:        ctx,
		service:    id,
		subChannel: comp.SubChannel,
		ch:         make(chan []byte, d.opts.SubscriptionBuffer),
	}
	d.subs = append(d.subs, sub)
	d.logger.Debug("service subscribed",
		logging.String(logging.FieldService, id.String()),
		logging.Int("sub_channel", int(comp.SubChannel)),
		logging.Int("packet_address", int(comp.PacketAddress)),
	)
	return sub.ch, nil
}

// Update consumes one symbol block. It returns false once the symbol queue
// is exhausted or ctx is cancelled, after closing every subscription.
func (d *Decoder) Update(ctx context.Context) bool {
	block, err := d.symbols.Pop(ctx)
	if err != nil {
		d.stop()
		return false
	}
	d.blocks.Add(1)
	d.updateTable(block.FIC)
	if !d.deliver(ctx, block) {
		d.stop()
		return false
	}
	return true
}

func (d *Decoder) updateTable(ficData []byte) {
	if len(ficData) == 0 {
		return
	}
	if bad := d.db.ParseFIC(ficData); bad > 0 {
		d.badFIBs.Add(uint64(bad))
	}
	version := d.db.Version()

	d.mu.Lock()
	defer d.mu.Unlock()
	if version != d.lastVersion {
		d.lastVersion = version
		d.stableFor = 0
		return
	}
	d.stableFor++
}

func (d *Decoder) deliver(ctx context.Context, block dab.SymbolBlock) bool {
	d.mu.Lock()
	subs := make([]*subscription, 0, len(d.subs))
	live := d.subs[:0]
	for _, sub := range d.subs {
		if sub.ctx.Err() != nil {
			close(sub.ch)
			continue
		}
		live = append(live, sub)
		subs = append(subs, sub)
	}
	d.subs = live
	d.mu.Unlock()

	for _, sub := range subs {
		data, ok := block.SubChannel(sub.subChannel)
		if !ok {
			continue
		}
		for _, pkt := range splitPackets(data) {
			select {
			case sub.ch <- pkt:
				d.delivered.Add(1)
			case <-sub.ctx.Done():
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}

// splitPackets cuts a sub-channel frame into packets by their length
// fields. A truncated tail is discarded.
func splitPackets(data []byte) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		n := packet.Length(data[0])
		if n > len(data) {
			break
		}
		out = append(out, append([]byte(nil), data[:n]...))
		data = data[n:]
	}
	return out
}

func (d *Decoder) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for _, sub := range d.subs {
		close(sub.ch)
	}
	d.subs = nil
}

// Run drives Update until it reports no further progress.
func (d *Decoder) Run(ctx context.Context) error {
	for d.Update(ctx) {
	}
	return ctx.Err()
}
