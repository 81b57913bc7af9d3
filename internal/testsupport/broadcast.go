package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"datarecv/internal/dab"
	"datarecv/internal/datagroup"
	"datarecv/internal/eti"
	"datarecv/internal/packet"
)

const (
	broadcastPacketLength    = 96
	broadcastPacketsPerFrame = 4
)

// Broadcast describes a synthetic mode I ensemble transmission carrying
// packet-mode messages.
type Broadcast struct {
	EnsembleID uint16
	Label      string
	Services   []Service
	// Messages lists the data group payloads sent on each packet-mode service.
	Messages map[dab.ServiceID][][]byte
	// LeadFrames carry only the FIC and padding before any message is sent.
	LeadFrames int
	// TailFrames follow the last message.
	TailFrames int
}

type broadcastChannel struct {
	id    uint8
	queue [][]byte
}

// Frames renders the broadcast as ETI-NI frames.
func (b Broadcast) Frames(t testing.TB) [][]byte {
	t.Helper()

	carousel := FICCarousel(t, b.EnsembleID, b.Label, b.Services...)
	padding, err := packet.Build(broadcastPacketLength, packet.PaddingAddress, 0, true, true, nil)
	if err != nil {
		t.Fatalf("build padding packet: %v", err)
	}

	var channels []*broadcastChannel
	bySubChannel := make(map[uint8]*broadcastChannel)
	for _, svc := range b.Services {
		if svc.Audio {
			continue
		}
		ch, ok := bySubChannel[svc.SubChannel]
		if !ok {
			ch = &broadcastChannel{id: svc.SubChannel}
			bySubChannel[svc.SubChannel] = ch
			channels = append(channels, ch)
		}
		var ci uint8
		for _, msg := range b.Messages[svc.ID] {
			group, err := datagroup.Encode(datagroup.Group{HasCRC: true, Data: msg})
			if err != nil {
				t.Fatalf("encode data group: %v", err)
			}
			pkts, err := packet.Packetize(group, svc.Address, broadcastPacketLength, ci)
			if err != nil {
				t.Fatalf("packetize: %v", err)
			}
			ci = (ci + uint8(len(pkts))) & 0x03
			ch.queue = append(ch.queue, pkts...)
		}
	}

	dataFrames := 0
	for _, ch := range channels {
		n := (len(ch.queue) + broadcastPacketsPerFrame - 1) / broadcastPacketsPerFrame
		if n > dataFrames {
			dataFrames = n
		}
	}

	total := b.LeadFrames + dataFrames + b.TailFrames
	frames := make([][]byte, 0, total)
	for n := 0; n < total; n++ {
		streams := make([]dab.SubChannelData, 0, len(channels))
		for _, ch := range channels {
			var data []byte
			for i := 0; i < broadcastPacketsPerFrame; i++ {
				if n >= b.LeadFrames && len(ch.queue) > 0 {
					data = append(data, ch.queue[0]...)
					ch.queue = ch.queue[1:]
					continue
				}
				data = append(data, padding...)
			}
			streams = append(streams, dab.SubChannelData{ID: ch.id, Data: data})
		}
		frame, err := eti.BuildFrame(uint8(n), dab.TransmissionMode1, carousel[n%len(carousel)], streams)
		if err != nil {
			t.Fatalf("build frame %d: %v", n, err)
		}
		frames = append(frames, frame)
	}
	return frames
}

// WriteRecording concatenates frames into a replay file at path.
func WriteRecording(t testing.TB, path string, frames [][]byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Join(frames, nil), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// IPDTBroadcast is a one-service ensemble sending messages at address on
// sub-channel 1.
func IPDTBroadcast(id dab.ServiceID, address uint16, messages ...[]byte) Broadcast {
	return Broadcast{
		EnsembleID: 0xC1A0,
		Label:      "IPDT MUX",
		Services: []Service{
			{ID: id, Label: "IPDT", DSCTy: dab.IPDTComponentType, SubChannel: 1, Address: address},
		},
		Messages:   map[dab.ServiceID][][]byte{id: messages},
		LeadFrames: 20,
		TailFrames: 2,
	}
}
