package packet

import (
	"errors"
	"fmt"

	"datarecv/internal/dab"
)

const (
	headerLen = 3
	crcLen    = 2
	// PaddingAddress marks packets that carry no service data.
	PaddingAddress uint16 = 0
	// MaxAddress is the largest 10-bit packet address.
	MaxAddress uint16 = 1023
)

var packetLengths = [4]int{24, 48, 72, 96}

// Header is the decoded packet header.
type Header struct {
	Length           int
	ContinuityIndex  uint8
	First            bool
	Last             bool
	Address          uint16
	Command          bool
	UsefulDataLength int
}

// DecodeHeader reads the 3-byte packet header.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < headerLen {
		return Header{}, errors.New("packet header truncated")
	}
	return Header{
		Length:           packetLengths[b[0]>>6],
		ContinuityIndex:  (b[0] >> 4) & 0x03,
		First:            b[0]&0x08 != 0,
		Last:             b[0]&0x04 != 0,
		Address:          uint16(b[0]&0x03)<<8 | uint16(b[1]),
		Command:          b[2]&0x80 != 0,
		UsefulDataLength: int(b[2] & 0x7F),
	}, nil
}

// Length returns the total packet length announced by the first byte.
func Length(first byte) int {
	return packetLengths[first>>6]
}

// Parser reassembles data groups for one packet address.
type Parser struct {
	address    uint16
	buf        []byte
	inProgress bool
	lastCI     uint8
}

// NewParser returns a parser that accepts packets for address only.
func NewParser(address uint16) *Parser {
	return &Parser{address: address}
}

// Address returns the packet address the parser is bound to.
func (p *Parser) Address() uint16 { return p.address }

// Parse consumes one packet. It returns StatusOK with the reassembled
// data group when the packet completes one, StatusIncomplete while more
// packets are expected, StatusInvalidAddress for packets of other flows,
// and an error status for malformed packets. Errors discard any partially
// assembled group.
func (p *Parser) Parse(data []byte) (dab.ParseStatus, []byte) {
	if len(data) < headerLen+crcLen {
		return dab.StatusInvalidLength, nil
	}
	hdr, _ := DecodeHeader(data)
	if hdr.Length != len(data) {
		return dab.StatusInvalidLength, nil
	}
	if !dab.CheckCRC(data) {
		return dab.StatusInvalidCRC, nil
	}
	if hdr.Address == PaddingAddress || hdr.Address != p.address {
		return dab.StatusInvalidAddress, nil
	}
	if hdr.UsefulDataLength > hdr.Length-headerLen-crcLen {
		p.reset()
		return dab.StatusInvalidUsefulLength, nil
	}
	useful := data[headerLen : headerLen+hdr.UsefulDataLength]

	switch {
	case hdr.First:
		p.buf = append(p.buf[:0], useful...)
		p.inProgress = true
	case !p.inProgress:
		// Joined mid-group; wait for the next first packet.
		return dab.StatusIncomplete, nil
	case hdr.ContinuityIndex != (p.lastCI+1)&0x03:
		p.reset()
		return dab.StatusDiscontinuity, nil
	default:
		p.buf = append(p.buf, useful...)
	}
	p.lastCI = hdr.ContinuityIndex

	if !hdr.Last {
		return dab.StatusIncomplete, nil
	}
	group := make([]byte, len(p.buf))
	copy(group, p.buf)
	p.reset()
	return dab.StatusOK, group
}

func (p *Parser) reset() {
	p.buf = p.buf[:0]
	p.inProgress = false
}

// Build encodes one packet of the given total length carrying useful data.
func Build(length int, address uint16, ci uint8, first, last bool, useful []byte) ([]byte, error) {
	code := -1
	for i, l := range packetLengths {
		if l == length {
			code = i
		}
	}
	if code < 0 {
		return nil, fmt.Errorf("invalid packet length %d", length)
	}
	if address > MaxAddress {
		return nil, fmt.Errorf("packet address %d out of range", address)
	}
	if len(useful) > length-headerLen-crcLen {
		return nil, fmt.Errorf("useful data of %d bytes exceeds %d-byte packet", len(useful), length)
	}
	b := make([]byte, 0, length)
	b0 := byte(code)<<6 | (ci&0x03)<<4 | byte(address>>8)&0x03
	if first {
		b0 |= 0x08
	}
	if last {
		b0 |= 0x04
	}
	b = append(b, b0, byte(address), byte(len(useful)))
	b = append(b, useful...)
	for len(b) < length-crcLen {
		b = append(b, 0)
	}
	return dab.AppendCRC(b), nil
}

// Packetize splits a data group into a sequence of packets of the given
// length, with continuity indices starting at startCI.
func Packetize(group []byte, address uint16, length int, startCI uint8) ([][]byte, error) {
	capacity := length - headerLen - crcLen
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid packet length %d", length)
	}
	var out [][]byte
	ci := startCI
	for offset := 0; offset < len(group) || offset == 0; {
		end := offset + capacity
		if end > len(group) {
			end = len(group)
		}
		pkt, err := Build(length, address, ci, offset == 0, end == len(group), group[offset:end])
		if err != nil {
			return nil, err
		}
		out = append(out, pkt)
		ci = (ci + 1) & 0x03
		if end == len(group) {
			break
		}
		offset = end
	}
	return out, nil
}
