package eti

import (
	"encoding/binary"
	"errors"
	"fmt"

	"datarecv/internal/dab"
)

// FrameLength is the fixed size of an ETI(NI) frame.
const FrameLength = 6144

const (
	syncEven uint32 = 0x073AB6
	syncOdd  uint32 = 0xF8C549

	errNone = 0xFF

	headerLength = 4 + 4 // ERR+FSYNC, FC
	eohLength    = 4
	eofLength    = 4
	tistLength   = 4
)

var (
	ErrNoSync       = errors.New("frame sync not found")
	ErrHeaderCRC    = errors.New("frame header crc mismatch")
	ErrFrameLength  = errors.New("frame length exceeds frame")
	ErrSignalError  = errors.New("frame flagged with signal error")
	ErrModeMismatch = errors.New("frame transmission mode mismatch")
)

// SubChannel describes one entry of the stream characteristics.
type SubChannel struct {
	ID           uint8
	StartAddress uint16
	Protection   uint8
	// Words is the stream length in 64-bit words.
	Words uint16
}

// Frame is a parsed ETI(NI) frame.
type Frame struct {
	Count       uint8
	Mode        dab.TransmissionMode
	FIC         []byte
	SubChannels []SubChannel
	Streams     [][]byte
}

// HasSync reports whether buf begins with an ETI ERR byte followed by
// either FSYNC pattern.
func HasSync(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	sync := uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return sync == syncEven || sync == syncOdd
}

func modeFromMID(mid byte) dab.TransmissionMode {
	switch mid {
	case 1:
		return dab.TransmissionMode1
	case 2:
		return dab.TransmissionMode2
	case 3:
		return dab.TransmissionMode3
	default:
		return dab.TransmissionMode4
	}
}

func midFromMode(mode dab.TransmissionMode) byte {
	switch mode {
	case dab.TransmissionMode2:
		return 2
	case dab.TransmissionMode3:
		return 3
	case dab.TransmissionMode4:
		return 0
	default:
		return 1
	}
}

// ParseFrame decodes a single frame. The returned slices alias buf.
func ParseFrame(buf []byte) (Frame, error) {
	if len(buf) < FrameLength {
		return Frame{}, fmt.Errorf("frame needs %d bytes, have %d", FrameLength, len(buf))
	}
	if !HasSync(buf) {
		return Frame{}, ErrNoSync
	}
	fc := buf[4:8]
	frame := Frame{Count: fc[0]}
	ficPresent := fc[1]&0x80 != 0
	nst := int(fc[1] & 0x7F)
	frame.Mode = modeFromMID((fc[2] >> 3) & 0x03)

	stcEnd := headerLength + 4*nst
	eohEnd := stcEnd + eohLength
	if eohEnd > FrameLength {
		return Frame{}, ErrFrameLength
	}
	// The header CRC covers FC, STC and MNSC.
	if dab.CRC(buf[4:eohEnd-2]) != binary.BigEndian.Uint16(buf[eohEnd-2:eohEnd]) {
		return Frame{}, ErrHeaderCRC
	}
	if buf[0] != errNone {
		return Frame{}, ErrSignalError
	}

	frame.SubChannels = make([]SubChannel, nst)
	for i := 0; i < nst; i++ {
		s := buf[headerLength+4*i : headerLength+4*i+4]
		frame.SubChannels[i] = SubChannel{
			ID:           s[0] >> 2,
			StartAddress: uint16(s[0]&0x03)<<8 | uint16(s[1]),
			Protection:   s[2] >> 2,
			Words:        uint16(s[2]&0x03)<<8 | uint16(s[3]),
		}
	}

	pos := eohEnd
	if ficPresent {
		n := frame.Mode.FICBytesPerFrame()
		if pos+n > FrameLength {
			return Frame{}, ErrFrameLength
		}
		frame.FIC = buf[pos : pos+n]
		pos += n
	}
	frame.Streams = make([][]byte, nst)
	for i, sc := range frame.SubChannels {
		n := int(sc.Words) * 8
		if pos+n > FrameLength-eofLength-tistLength {
			return Frame{}, ErrFrameLength
		}
		frame.Streams[i] = buf[pos : pos+n]
		pos += n
	}
	return frame, nil
}

// SymbolBlock copies the frame contents into a block that does not alias
// the frame buffer.
func (f Frame) SymbolBlock() dab.SymbolBlock {
	block := dab.SymbolBlock{
		Sequence:    f.Count,
		FIC:         append([]byte(nil), f.FIC...),
		SubChannels: make([]dab.SubChannelData, len(f.SubChannels)),
	}
	for i, sc := range f.SubChannels {
		block.SubChannels[i] = dab.SubChannelData{ID: sc.ID, Data: append([]byte(nil), f.Streams[i]...)}
	}
	return block
}

// BuildFrame assembles a frame. Stream lengths are rounded up to whole
// 64-bit words with zero padding. It is used to produce replay files and
// test input.
func BuildFrame(count uint8, mode dab.TransmissionMode, fic []byte, streams []dab.SubChannelData) ([]byte, error) {
	if fic != nil && len(fic) != mode.FICBytesPerFrame() {
		return nil, fmt.Errorf("fic must be %d bytes for mode %s", mode.FICBytesPerFrame(), mode)
	}
	buf := make([]byte, FrameLength)
	buf[0] = errNone
	sync := syncEven
	if count%2 == 1 {
		sync = syncOdd
	}
	buf[1], buf[2], buf[3] = byte(sync>>16), byte(sync>>8), byte(sync)

	nst := len(streams)
	if nst > 64 {
		return nil, fmt.Errorf("too many sub-channels: %d", nst)
	}
	words := make([]int, nst)
	total := 0
	for i, s := range streams {
		words[i] = (len(s.Data) + 7) / 8
		total += words[i] * 8
	}
	if headerLength+4*nst+eohLength+len(fic)+total > FrameLength-eofLength-tistLength {
		return nil, ErrFrameLength
	}

	// FL counts 32-bit words of STC, EOH and MST.
	fl := nst + 1 + len(fic)/4 + total/4
	buf[4] = count
	buf[5] = byte(nst)
	if fic != nil {
		buf[5] |= 0x80
	}
	buf[6] = midFromMode(mode)<<3 | byte(fl>>8)&0x07
	buf[7] = byte(fl)

	pos := headerLength
	var address uint16
	for i, s := range streams {
		buf[pos] = s.ID<<2 | byte(address>>8)&0x03
		buf[pos+1] = byte(address)
		buf[pos+2] = byte(words[i]>>8) & 0x03
		buf[pos+3] = byte(words[i])
		address += uint16(words[i])
		pos += 4
	}
	// MNSC left zero.
	pos += 2
	binary.BigEndian.PutUint16(buf[pos:], dab.CRC(buf[4:pos]))
	pos += 2

	pos += copy(buf[pos:], fic)
	for i, s := range streams {
		copy(buf[pos:], s.Data)
		pos += words[i] * 8
	}
	return buf, nil
}
