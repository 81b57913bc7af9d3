package testsupport

import (
	"testing"

	"datarecv/internal/dab"
	"datarecv/internal/fic"
)

// Service describes a service to announce in a synthetic FIC.
type Service struct {
	ID    dab.ServiceID
	Label string
	// Audio services carry a stream audio component on SubChannel; all
	// others carry a packet-mode component with DSCTy and Address.
	Audio      bool
	DSCTy      uint8
	SubChannel uint8
	Address    uint16
}

// FICCarousel encodes an ensemble announcement as a sequence of FIC
// payloads for mode I. Replaying the carousel repeatedly mirrors how a
// multiplexer cycles its FIGs.
func FICCarousel(t testing.TB, ensembleID uint16, label string, services ...Service) [][]byte {
	t.Helper()

	figs := [][]byte{fic.EnsembleIDFIG(ensembleID), fic.EnsembleLabelFIG(ensembleID, label)}
	for i, svc := range services {
		if svc.Audio {
			figs = append(figs, fic.ServiceFIG(svc.ID, dab.Component{
				Transport:  dab.TransportStreamAudio,
				TypeCode:   63,
				SubChannel: svc.SubChannel,
				Primary:    true,
			}))
		} else {
			scid := uint16(i + 1)
			figs = append(figs,
				fic.ServiceFIG(svc.ID, dab.Component{
					Transport:          dab.TransportPacketData,
					ServiceComponentID: scid,
					Primary:            true,
				}),
				fic.PacketComponentFIG(scid, svc.DSCTy, svc.SubChannel, svc.Address),
			)
		}
		figs = append(figs, fic.ServiceLabelFIG(svc.ID, svc.Label))
	}

	var fibs [][]byte
	var pending [][]byte
	size := 0
	flush := func() {
		fib, err := fic.BuildFIB(pending...)
		if err != nil {
			t.Fatalf("BuildFIB: %v", err)
		}
		fibs = append(fibs, fib)
		pending = nil
		size = 0
	}
	for _, f := range figs {
		if size+len(f) > fic.FIBLength-2 {
			flush()
		}
		pending = append(pending, f)
		size += len(f)
	}
	flush()

	const fibsPerFIC = 3
	for len(fibs)%fibsPerFIC != 0 {
		pending = nil
		flush()
	}
	var out [][]byte
	for i := 0; i < len(fibs); i += fibsPerFIC {
		var payload []byte
		for _, fib := range fibs[i : i+fibsPerFIC] {
			payload = append(payload, fib...)
		}
		out = append(out, payload)
	}
	return out
}
