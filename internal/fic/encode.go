package fic

import (
	"encoding/binary"
	"fmt"

	"datarecv/internal/dab"
)

// The encoders below produce FIGs in the layout the decoder expects. They
// are used to synthesise FIC data for replay files and tests.

// BuildFIB packs FIGs into a 32-byte block, padding with 0xFF and
// appending the CRC.
func BuildFIB(figs ...[]byte) ([]byte, error) {
	data := make([]byte, 0, FIBLength)
	for _, fig := range figs {
		data = append(data, fig...)
	}
	if len(data) > FIBLength-2 {
		return nil, fmt.Errorf("figs need %d bytes, fib holds %d", len(data), FIBLength-2)
	}
	for len(data) < FIBLength-2 {
		data = append(data, 0xFF)
	}
	return dab.AppendCRC(data), nil
}

func fig(figType byte, body []byte) []byte {
	return append([]byte{figType<<5 | byte(len(body))}, body...)
}

// EnsembleIDFIG encodes FIG 0/0.
func EnsembleIDFIG(id uint16) []byte {
	body := []byte{0x00, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(body[1:], id)
	return fig(0, body)
}

// ServiceFIG encodes FIG 0/2 for a single service. Data services (ids
// above 0xFFFF) use the 32-bit form.
func ServiceFIG(id dab.ServiceID, components ...dab.Component) []byte {
	pd := id > 0xFFFF
	header := byte(0x02)
	body := []byte{header}
	if pd {
		body[0] |= 0x20
		body = binary.BigEndian.AppendUint32(body, uint32(id))
	} else {
		body = binary.BigEndian.AppendUint16(body, uint16(id))
	}
	body = append(body, byte(len(components)&0x0F))
	for _, c := range components {
		var a, b byte
		a = byte(c.Transport) << 6
		switch c.Transport {
		case dab.TransportPacketData:
			a |= byte(c.ServiceComponentID>>6) & 0x3F
			b = byte(c.ServiceComponentID&0x3F) << 2
		default:
			a |= c.TypeCode & 0x3F
			b = (c.SubChannel & 0x3F) << 2
		}
		if c.Primary {
			b |= 0x02
		}
		body = append(body, a, b)
	}
	return fig(0, body)
}

// PacketComponentFIG encodes FIG 0/3 for one packet-mode component.
func PacketComponentFIG(scid uint16, dscty, subChannel uint8, address uint16) []byte {
	body := []byte{
		0x03,
		byte(scid >> 4),
		byte(scid&0x0F) << 4,
		0x80 | dscty&0x3F,
		(subChannel&0x3F)<<2 | byte(address>>8)&0x03,
		byte(address),
	}
	return fig(0, body)
}

// EnsembleLabelFIG encodes FIG 1/0 in the EBU Latin charset.
func EnsembleLabelFIG(ensembleID uint16, label string) []byte {
	body := []byte{0x00}
	body = binary.BigEndian.AppendUint16(body, ensembleID)
	body = append(body, padLabel(label)...)
	return fig(1, append(body, 0xFF, 0x00))
}

// ServiceLabelFIG encodes FIG 1/1 or 1/5 depending on the identifier width.
func ServiceLabelFIG(id dab.ServiceID, label string) []byte {
	body := []byte{0x01}
	if id > 0xFFFF {
		body[0] = 0x05
		body = binary.BigEndian.AppendUint32(body, uint32(id))
	} else {
		body = binary.BigEndian.AppendUint16(body, uint16(id))
	}
	body = append(body, padLabel(label)...)
	return fig(1, append(body, 0xFF, 0x00))
}

func padLabel(label string) []byte {
	out := make([]byte, labelLength)
	for i := range out {
		out[i] = ' '
	}
	copy(out, label)
	return out
}
