package dab

import (
	"encoding/binary"

	"github.com/howeyc/crc16"
)

// CRC computes the CRC-16 used by FIBs, packets and data groups: CCITT
// polynomial, preset 0xFFFF, transmitted inverted.
func CRC(data []byte) uint16 {
	return crc16.ChecksumCCITTFalse(data) ^ 0xFFFF
}

// CheckCRC validates a buffer whose last two bytes carry the CRC of the
// bytes before them.
func CheckCRC(buf []byte) bool {
	if len(buf) < 2 {
		return false
	}
	n := len(buf) - 2
	return CRC(buf[:n]) == binary.BigEndian.Uint16(buf[n:])
}

// AppendCRC appends the CRC of buf to buf.
func AppendCRC(buf []byte) []byte {
	return binary.BigEndian.AppendUint16(buf, CRC(buf))
}
