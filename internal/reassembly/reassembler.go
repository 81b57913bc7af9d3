package reassembly

import (
	"context"
	"errors"
	"log/slog"

	"datarecv/internal/dab"
	"datarecv/internal/datagroup"
	"datarecv/internal/logging"
	"datarecv/internal/packet"
)

// Store persists cleaned messages.
type Store interface {
	Save(ctx context.Context, message []byte) (uint64, error)
}

// Observer receives per-stage outcomes. Implementations must be safe for
// concurrent use when several reassemblers share one.
type Observer interface {
	PayloadReceived(service dab.ServiceID)
	PacketStatus(service dab.ServiceID, status dab.ParseStatus)
	GroupStatus(service dab.ServiceID, status dab.ParseStatus)
	MessageStored(service dab.ServiceID, size int)
	StoreFailed(service dab.ServiceID)
}

type nopObserver struct{}

func (nopObserver) PayloadReceived(dab.ServiceID)               {}
func (nopObserver) PacketStatus(dab.ServiceID, dab.ParseStatus) {}
func (nopObserver) GroupStatus(dab.ServiceID, dab.ParseStatus)  {}
func (nopObserver) MessageStored(dab.ServiceID, int)            {}
func (nopObserver) StoreFailed(dab.ServiceID)                   {}

// Options wires a Reassembler.
type Options struct {
	Service dab.ServiceID
	// Address is the packet address to reassemble. It is ignored when
	// Packets is set.
	Address  uint16
	Packets  dab.PacketParser
	Groups   dab.DataGroupParser
	Strip    FixedOffsetStrip
	Store    Store
	Observer Observer
	Logger   *slog.Logger
}

// Reassembler holds the parsing state for one subscribed service.
type Reassembler struct {
	service  dab.ServiceID
	packets  dab.PacketParser
	groups   dab.DataGroupParser
	strip    FixedOffsetStrip
	store    Store
	observer Observer
	logger   *slog.Logger
}

// New constructs a reassembler. Unset parsers default to the packet-mode
// and MSC data group implementations.
func New(opts Options) (*Reassembler, error) {
	if opts.Store == nil {
		return nil, errors.New("reassembly store required")
	}
	if err := opts.Strip.Validate(); err != nil {
		return nil, err
	}
	r := &Reassembler{
		service:  opts.Service,
		packets:  opts.Packets,
		groups:   opts.Groups,
		strip:    opts.Strip,
		store:    opts.Store,
		observer: opts.Observer,
	}
	if r.packets == nil {
		r.packets = packet.NewParser(opts.Address)
	}
	if r.groups == nil {
		r.groups = datagroup.NewParser()
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	r.logger = logging.NewComponentLogger(opts.Logger, "reassembly").With(logging.String(logging.FieldService, opts.Service.String()))
	return r, nil
}

// Handle processes one payload. It reports whether a message was stored.
func (r *Reassembler) Handle(ctx context.Context, payload []byte) bool {
	r.observer.PayloadReceived(r.service)

	status, group := r.packets.Parse(payload)
	r.observer.PacketStatus(r.service, status)
	switch {
	case status == dab.StatusIncomplete, status == dab.StatusInvalidAddress:
		return false
	case status.IsError():
		logging.ErrorWithContext(r.logger, "packet dropped", "packet_parse_error",
			logging.Int("status", int(status)),
			logging.String("reason", status.String()),
		)
		return false
	}

	status, data := r.groups.Parse(group)
	r.observer.GroupStatus(r.service, status)
	if status != dab.StatusOK {
		logging.ErrorWithContext(r.logger, "data group dropped", "datagroup_parse_error",
			logging.Int("status", int(status)),
			logging.String("reason", status.String()),
		)
		return false
	}

	message := r.strip.Apply(data)
	id, err := r.store.Save(ctx, message)
	if err != nil {
		r.observer.StoreFailed(r.service)
		logging.ErrorWithContext(r.logger, "message not stored", "store_failed",
			logging.Uint64("message_id", id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output directory permissions and free space"),
		)
		return false
	}
	r.observer.MessageStored(r.service, len(message))
	r.logger.Info("message stored", logging.Uint64("message_id", id), logging.Int("bytes", len(message)))
	return true
}

// Run handles payloads from in until it is closed or ctx ends. Partial
// messages in flight are discarded.
func (r *Reassembler) Run(ctx context.Context, in <-chan []byte) error {
	for {
		select {
		case payload, ok := <-in:
			if !ok {
				return nil
			}
			r.Handle(ctx, payload)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
