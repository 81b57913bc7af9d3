package dab

import "context"

// SampleSource acquires raw samples into a sample queue.
type SampleSource interface {
	Enable(Option) error
	Tune(Frequency) error
	// Run blocks until the input ends or ctx is cancelled. It closes the
	// sample queue on return.
	Run(ctx context.Context) error
}

// Demodulator turns samples into symbol blocks. Run closes the symbol
// queue on return.
type Demodulator interface {
	Run(ctx context.Context) error
}

// EnsembleDecoder incrementally builds the service table and delivers
// service payloads to subscribers.
type EnsembleDecoder interface {
	// Ready reports whether the service table is populated.
	Ready() bool
	// Update consumes available symbols. It returns false once no further
	// progress is possible (input ended or ctx cancelled).
	Update(ctx context.Context) bool
	Label() string
	Services() map[ServiceID]*Service
	// Subscribe returns a channel receiving each raw payload addressed to
	// the service, in arrival order. The channel is closed when the decoder
	// stops delivering.
	Subscribe(ctx context.Context, id ServiceID) (<-chan []byte, error)
}

// PacketParser reassembles packet-mode fragments for one address.
type PacketParser interface {
	Parse(data []byte) (ParseStatus, []byte)
}

// DataGroupParser unwraps an MSC data group.
type DataGroupParser interface {
	Parse(data []byte) (ParseStatus, []byte)
}
