package datagroup_test

import (
	"bytes"
	"testing"

	"datarecv/internal/dab"
	"datarecv/internal/datagroup"
)

func TestParseReturnsDataField(t *testing.T) {
	tid := uint16(0xBEEF)
	raw, err := datagroup.Encode(datagroup.Group{
		Type:           4,
		HasCRC:         true,
		Segmented:      true,
		LastSegment:    true,
		SegmentNumber:  3,
		TransportID:    &tid,
		EndUserAddress: []byte{0x01, 0x02},
		Data:           []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	status, data := datagroup.NewParser().Parse(raw)
	if status != dab.StatusOK {
		t.Fatalf("status = %v", status)
	}
	if string(data) != "payload" {
		t.Fatalf("data = %q", data)
	}

	g, status := datagroup.Decode(raw)
	if status != dab.StatusOK {
		t.Fatalf("Decode status = %v", status)
	}
	if g.Type != 4 || !g.LastSegment || g.SegmentNumber != 3 {
		t.Fatalf("unexpected header %+v", g)
	}
	if g.TransportID == nil || *g.TransportID != tid {
		t.Fatalf("transport id = %v", g.TransportID)
	}
	if !bytes.Equal(g.EndUserAddress, []byte{0x01, 0x02}) {
		t.Fatalf("end user address = %x", g.EndUserAddress)
	}
}

func TestParseWithoutCRCOrSessionHeader(t *testing.T) {
	ext := uint16(0x1234)
	raw, err := datagroup.Encode(datagroup.Group{Extension: &ext, Data: []byte{9, 8, 7}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(raw) != 2+2+3 {
		t.Fatalf("encoded length %d", len(raw))
	}
	status, data := datagroup.NewParser().Parse(raw)
	if status != dab.StatusOK || !bytes.Equal(data, []byte{9, 8, 7}) {
		t.Fatalf("Parse = %v, %v", status, data)
	}
}

func TestParseRejectsBadCRC(t *testing.T) {
	raw, err := datagroup.Encode(datagroup.Group{HasCRC: true, Data: []byte("abc")})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw[2] ^= 0x10
	if status, _ := datagroup.NewParser().Parse(raw); status != dab.StatusInvalidCRC {
		t.Fatalf("status = %v, want invalid CRC", status)
	}
}

func TestParseRejectsTruncatedGroups(t *testing.T) {
	cases := map[string][]byte{
		"empty":            nil,
		"one byte":         {0x00},
		"missing ext":      {0x80, 0x00, 0x01},
		"missing segment":  {0x20, 0x00},
		"missing user acc": {0x10, 0x00},
		"short address":    {0x10, 0x00, 0x03, 0x01},
	}
	for name, raw := range cases {
		if status, _ := datagroup.NewParser().Parse(raw); status != dab.StatusTruncated {
			t.Fatalf("%s: status = %v, want truncated", name, status)
		}
	}
}
