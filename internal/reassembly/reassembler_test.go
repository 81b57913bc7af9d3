package reassembly

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"datarecv/internal/dab"
	"datarecv/internal/datagroup"
	"datarecv/internal/packet"
)

type memoryStore struct {
	mu       sync.Mutex
	next     uint64
	messages [][]byte
	fail     error
}

func (s *memoryStore) Save(_ context.Context, message []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if s.fail != nil {
		return s.next, s.fail
	}
	s.messages = append(s.messages, append([]byte(nil), message...))
	return s.next, nil
}

type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *logCapture) errorLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, line := range strings.Split(c.buf.String(), "\n") {
		if strings.Contains(line, `"level":"ERROR"`) {
			out = append(out, line)
		}
	}
	return out
}

func newTestReassembler(t *testing.T, opts Options) (*Reassembler, *memoryStore, *logCapture) {
	t.Helper()
	logs := &logCapture{}
	store := &memoryStore{}
	if opts.Store == nil {
		opts.Store = store
	}
	if opts.Strip == (FixedOffsetStrip{}) {
		opts.Strip = DefaultStrip()
	}
	opts.Logger = slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, store, logs
}

func encodeGroup(t *testing.T, data []byte) []byte {
	t.Helper()
	group, err := datagroup.Encode(datagroup.Group{Type: 0, HasCRC: true, Data: data})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return group
}

// fragmentParser concatenates fragments, completing on the third.
type fragmentParser struct {
	address uint16
	parts   [][]byte
}

func (p *fragmentParser) Parse(data []byte) (dab.ParseStatus, []byte) {
	if len(data) == 0 {
		return dab.StatusInvalidLength, nil
	}
	if uint16(data[0]) != p.address {
		return dab.StatusInvalidAddress, nil
	}
	p.parts = append(p.parts, data[1:])
	if len(p.parts) < 3 {
		return dab.StatusIncomplete, nil
	}
	out := bytes.Join(p.parts, nil)
	p.parts = nil
	return dab.StatusOK, out
}

func TestThreeFragmentsProduceOneRecord(t *testing.T) {
	const address = 0x21
	r, store, logs := newTestReassembler(t, Options{Packets: &fragmentParser{address: address}})
	payload := sequence(2000)
	group := encodeGroup(t, payload)
	third := len(group) / 3
	fragments := [][]byte{group[:third], group[third : 2*third], group[2*third:]}

	ctx := context.Background()
	for i, f := range fragments {
		stored := r.Handle(ctx, append([]byte{address}, f...))
		if stored != (i == 2) {
			t.Fatalf("fragment %d: stored=%v", i, stored)
		}
	}
	if len(store.messages) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.messages))
	}
	if store.next != 1 {
		t.Fatalf("expected id 1, got %d", store.next)
	}
	got := store.messages[0]
	if len(got) != 1994 {
		t.Fatalf("expected 1994 bytes, got %d", len(got))
	}
	want := append(append([]byte{}, payload[:1024]...), payload[1030:]...)
	if !bytes.Equal(got, want) {
		t.Fatal("stored message differs from stripped payload")
	}
	if lines := logs.errorLines(); len(lines) != 0 {
		t.Fatalf("unexpected error logs: %v", lines)
	}
}

func TestPacketModeGroupReassembly(t *testing.T) {
	const address = 0x1A5
	r, store, _ := newTestReassembler(t, Options{Address: address})
	payload := sequence(2000)
	packets, err := packet.Packetize(encodeGroup(t, payload), address, 96, 2)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	ctx := context.Background()
	for i, p := range packets {
		stored := r.Handle(ctx, p)
		if stored != (i == len(packets)-1) {
			t.Fatalf("packet %d: stored=%v", i, stored)
		}
	}
	if len(store.messages) != 1 || len(store.messages[0]) != 1994 {
		t.Fatalf("unexpected records %d", len(store.messages))
	}
}

func TestForeignAddressIsSilent(t *testing.T) {
	r, store, logs := newTestReassembler(t, Options{Address: 0x10})
	packets, err := packet.Packetize(encodeGroup(t, sequence(50)), 0x11, 96, 0)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	for _, p := range packets {
		if r.Handle(context.Background(), p) {
			t.Fatal("foreign packet stored")
		}
	}
	if len(store.messages) != 0 || store.next != 0 {
		t.Fatal("expected no records")
	}
	if lines := logs.errorLines(); len(lines) != 0 {
		t.Fatalf("expected no error logs, got %v", lines)
	}
}

func TestIncompleteSequenceProducesNoRecord(t *testing.T) {
	r, store, logs := newTestReassembler(t, Options{Address: 0x10})
	packets, err := packet.Packetize(encodeGroup(t, sequence(500)), 0x10, 48, 0)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	for _, p := range packets[:len(packets)-1] {
		r.Handle(context.Background(), p)
	}
	if len(store.messages) != 0 {
		t.Fatal("expected no records")
	}
	if lines := logs.errorLines(); len(lines) != 0 {
		t.Fatalf("expected no error logs, got %v", lines)
	}
}

func TestMalformedPacketLogsOnce(t *testing.T) {
	r, store, logs := newTestReassembler(t, Options{Address: 0x10})
	pkt, err := packet.Build(24, 0x10, 0, true, true, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pkt[5] ^= 0xFF
	if r.Handle(context.Background(), pkt) {
		t.Fatal("corrupt packet stored")
	}
	if len(store.messages) != 0 {
		t.Fatal("expected no records")
	}
	lines := logs.errorLines()
	if len(lines) != 1 {
		t.Fatalf("expected exactly one error line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"status":3`) {
		t.Fatalf("error line missing numeric status: %s", lines[0])
	}
}

func TestMalformedGroupLogsOnce(t *testing.T) {
	r, store, logs := newTestReassembler(t, Options{Address: 0x10})
	group := encodeGroup(t, sequence(40))
	group[len(group)-1] ^= 0xFF
	packets, err := packet.Packetize(group, 0x10, 96, 0)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	for _, p := range packets {
		r.Handle(context.Background(), p)
	}
	if len(store.messages) != 0 {
		t.Fatal("expected no records")
	}
	lines := logs.errorLines()
	if len(lines) != 1 || !strings.Contains(lines[0], `"status":3`) {
		t.Fatalf("expected one data group error line, got %v", lines)
	}
}

func TestStoreFailureIsNonFatal(t *testing.T) {
	store := &memoryStore{fail: errors.New("disk full")}
	r, _, logs := newTestReassembler(t, Options{Address: 0x10, Store: store})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		packets, err := packet.Packetize(encodeGroup(t, sequence(10)), 0x10, 24, 0)
		if err != nil {
			t.Fatalf("Packetize: %v", err)
		}
		for _, p := range packets {
			r.Handle(ctx, p)
		}
	}
	if store.next != 2 {
		t.Fatalf("expected two attempted saves, got %d", store.next)
	}
	if lines := logs.errorLines(); len(lines) != 2 {
		t.Fatalf("expected two store failure lines, got %d", len(lines))
	}
}

func TestRunStopsWhenInputCloses(t *testing.T) {
	r, store, _ := newTestReassembler(t, Options{Address: 0x10})
	packets, err := packet.Packetize(encodeGroup(t, sequence(100)), 0x10, 72, 0)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	in := make(chan []byte, len(packets))
	for _, p := range packets {
		in <- p
	}
	close(in)
	if err := r.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.messages) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.messages))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r, _, _ := newTestReassembler(t, Options{Address: 0x10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, make(chan []byte)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without store")
	}
}
