package dab

import "strconv"

// ParseStatus is the outcome of running bytes through a packet or data
// group parser. Values are stable; they are reported numerically in logs.
type ParseStatus uint8

const (
	StatusOK ParseStatus = iota
	StatusIncomplete
	StatusInvalidAddress
	StatusInvalidCRC
	StatusInvalidLength
	StatusDiscontinuity
	StatusInvalidUsefulLength
	StatusTruncated
)

// IsError reports whether the status is a malformed-input failure that
// should be logged. Incomplete and invalid-address are expected noise.
func (s ParseStatus) IsError() bool {
	switch s {
	case StatusOK, StatusIncomplete, StatusInvalidAddress:
		return false
	default:
		return true
	}
}

func (s ParseStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusIncomplete:
		return "incomplete"
	case StatusInvalidAddress:
		return "invalid_address"
	case StatusInvalidCRC:
		return "invalid_crc"
	case StatusInvalidLength:
		return "invalid_length"
	case StatusDiscontinuity:
		return "discontinuity"
	case StatusInvalidUsefulLength:
		return "invalid_useful_length"
	case StatusTruncated:
		return "truncated"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}
