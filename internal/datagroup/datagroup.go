// Package datagroup unwraps MSC data groups: the header, optional
// extension field, session header and trailing CRC around the data field.
package datagroup

import (
	"encoding/binary"
	"errors"
	"fmt"

	"datarecv/internal/dab"
)

// Group is a decoded MSC data group.
type Group struct {
	Type            uint8
	ContinuityIndex uint8
	RepetitionIndex uint8
	Extension       *uint16
	HasCRC          bool
	Segmented       bool
	LastSegment     bool
	SegmentNumber   uint16
	TransportID     *uint16
	EndUserAddress  []byte
	Data            []byte
}

var errTruncated = errors.New("data group truncated")

// Decode parses b into a Group. The CRC, when present, must match.
func Decode(b []byte) (Group, dab.ParseStatus) {
	if len(b) < 2 {
		return Group{}, dab.StatusTruncated
	}
	g := Group{
		HasCRC:          b[0]&0x40 != 0,
		Segmented:       b[0]&0x20 != 0,
		Type:            b[0] & 0x0F,
		ContinuityIndex: b[1] >> 4,
		RepetitionIndex: b[1] & 0x0F,
	}
	extension := b[0]&0x80 != 0
	userAccess := b[0]&0x10 != 0

	end := len(b)
	if g.HasCRC {
		if len(b) < 4 {
			return Group{}, dab.StatusTruncated
		}
		if !dab.CheckCRC(b) {
			return Group{}, dab.StatusInvalidCRC
		}
		end -= 2
	}

	r := reader{buf: b[:end], pos: 2}
	if extension {
		v, err := r.readUint16()
		if err != nil {
			return Group{}, dab.StatusTruncated
		}
		g.Extension = &v
	}
	if g.Segmented {
		v, err := r.readUint16()
		if err != nil {
			return Group{}, dab.StatusTruncated
		}
		g.LastSegment = v&0x8000 != 0
		g.SegmentNumber = v & 0x7FFF
	}
	if userAccess {
		flags, err := r.readByte()
		if err != nil {
			return Group{}, dab.StatusTruncated
		}
		length := int(flags & 0x0F)
		if flags&0x10 != 0 {
			tid, err := r.readUint16()
			if err != nil || length < 2 {
				return Group{}, dab.StatusTruncated
			}
			g.TransportID = &tid
			length -= 2
		}
		addr, err := r.readBytes(length)
		if err != nil {
			return Group{}, dab.StatusTruncated
		}
		g.EndUserAddress = addr
	}
	g.Data = r.rest()
	return g, dab.StatusOK
}

// Parser adapts Decode to the dab.DataGroupParser contract.
type Parser struct{}

// NewParser returns a stateless data group parser.
func NewParser() *Parser { return &Parser{} }

// Parse returns the data field of the group.
func (Parser) Parse(data []byte) (dab.ParseStatus, []byte) {
	g, status := Decode(data)
	if status != dab.StatusOK {
		return status, nil
	}
	return dab.StatusOK, g.Data
}

// Encode serialises g. A CRC is appended when g.HasCRC is set.
func Encode(g Group) ([]byte, error) {
	b0 := g.Type & 0x0F
	if g.Extension != nil {
		b0 |= 0x80
	}
	if g.HasCRC {
		b0 |= 0x40
	}
	if g.Segmented {
		b0 |= 0x20
	}
	userAccess := g.TransportID != nil || len(g.EndUserAddress) > 0
	if userAccess {
		b0 |= 0x10
	}
	out := []byte{b0, g.ContinuityIndex<<4 | g.RepetitionIndex&0x0F}
	if g.Extension != nil {
		out = binary.BigEndian.AppendUint16(out, *g.Extension)
	}
	if g.Segmented {
		seg := g.SegmentNumber & 0x7FFF
		if g.LastSegment {
			seg |= 0x8000
		}
		out = binary.BigEndian.AppendUint16(out, seg)
	}
	if userAccess {
		length := len(g.EndUserAddress)
		var flags byte
		if g.TransportID != nil {
			flags |= 0x10
			length += 2
		}
		if length > 0x0F {
			return nil, fmt.Errorf("user access field of %d bytes too long", length)
		}
		out = append(out, flags|byte(length))
		if g.TransportID != nil {
			out = binary.BigEndian.AppendUint16(out, *g.TransportID)
		}
		out = append(out, g.EndUserAddress...)
	}
	out = append(out, g.Data...)
	if g.HasCRC {
		out = dab.AppendCRC(out)
	}
	return out, nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errTruncated
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readUint16() (uint16, error) {
	if r.pos+2 > len(r.buf) {
		return 0, errTruncated
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errTruncated
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *reader) rest() []byte {
	out := make([]byte, len(r.buf)-r.pos)
	copy(out, r.buf[r.pos:])
	return out
}
