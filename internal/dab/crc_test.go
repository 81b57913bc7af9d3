package dab_test

import (
	"testing"

	"datarecv/internal/dab"
)

func TestCRCRoundTrip(t *testing.T) {
	buf := dab.AppendCRC([]byte("123456789"))
	if !dab.CheckCRC(buf) {
		t.Fatal("expected appended CRC to validate")
	}
	buf[0] ^= 0x01
	if dab.CheckCRC(buf) {
		t.Fatal("expected corrupted buffer to fail CRC")
	}
}

func TestCRCKnownValue(t *testing.T) {
	// CRC-16/CCITT-FALSE of "123456789" is 0x29B1; DAB transmits it inverted.
	if got := dab.CRC([]byte("123456789")); got != 0x29B1^0xFFFF {
		t.Fatalf("CRC = 0x%04X", got)
	}
}

func TestCheckCRCShortBuffer(t *testing.T) {
	if dab.CheckCRC([]byte{0x01}) {
		t.Fatal("expected short buffer to fail")
	}
}
