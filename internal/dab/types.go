package dab

import (
	"fmt"
	"strconv"
	"strings"
)

// TransmissionMode selects the physical-layer frame structure.
type TransmissionMode int

const (
	TransmissionMode1 TransmissionMode = 1
	TransmissionMode2 TransmissionMode = 2
	TransmissionMode3 TransmissionMode = 3
	TransmissionMode4 TransmissionMode = 4
)

// ParseTransmissionMode accepts "1".."4" or the roman forms "I".."IV".
func ParseTransmissionMode(value string) (TransmissionMode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "1", "I":
		return TransmissionMode1, nil
	case "2", "II":
		return TransmissionMode2, nil
	case "3", "III":
		return TransmissionMode3, nil
	case "4", "IV":
		return TransmissionMode4, nil
	default:
		return 0, fmt.Errorf("unknown transmission mode %q", value)
	}
}

// Valid reports whether the mode is one of the four defined modes.
func (m TransmissionMode) Valid() bool {
	return m >= TransmissionMode1 && m <= TransmissionMode4
}

// FICBytesPerFrame returns the FIC length carried in one 24 ms ETI frame.
func (m TransmissionMode) FICBytesPerFrame() int {
	if m == TransmissionMode3 {
		return 128
	}
	return 96
}

func (m TransmissionMode) String() string {
	if !m.Valid() {
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
	return [...]string{"I", "II", "III", "IV"}[m-1]
}

// Frequency is a tuning frequency in kHz.
type Frequency uint32

func (f Frequency) String() string {
	return fmt.Sprintf("%d.%03d MHz", f/1000, f%1000)
}

// Option is a switchable sample source feature.
type Option int

const (
	// AutomaticGainControl lets the front end manage its own gain.
	AutomaticGainControl Option = iota + 1
)

func (o Option) String() string {
	switch o {
	case AutomaticGainControl:
		return "automatic_gain_control"
	default:
		return "option(" + strconv.Itoa(int(o)) + ")"
	}
}

// Sample is one opaque chunk of acquired signal.
type Sample []byte

// SubChannelData is the MSC payload of one sub-channel within a block.
type SubChannelData struct {
	ID   uint8
	Data []byte
}

// SymbolBlock is one demodulated logical frame: the FIC and the MSC
// sub-channel payloads it carried.
type SymbolBlock struct {
	Sequence    uint8
	FIC         []byte
	SubChannels []SubChannelData
}

// SubChannel returns the payload of the given sub-channel, if present.
func (b SymbolBlock) SubChannel(id uint8) ([]byte, bool) {
	for _, sc := range b.SubChannels {
		if sc.ID == id {
			return sc.Data, true
		}
	}
	return nil, false
}
