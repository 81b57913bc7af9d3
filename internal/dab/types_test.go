package dab_test

import (
	"testing"

	"datarecv/internal/dab"
)

func TestParseTransmissionMode(t *testing.T) {
	cases := []struct {
		in      string
		want    dab.TransmissionMode
		wantErr bool
	}{
		{"1", dab.TransmissionMode1, false},
		{" iii ", dab.TransmissionMode3, false},
		{"IV", dab.TransmissionMode4, false},
		{"5", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := dab.ParseTransmissionMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestFICBytesPerFrame(t *testing.T) {
	if got := dab.TransmissionMode1.FICBytesPerFrame(); got != 96 {
		t.Fatalf("mode I FIC = %d, want 96", got)
	}
	if got := dab.TransmissionMode3.FICBytesPerFrame(); got != 128 {
		t.Fatalf("mode III FIC = %d, want 128", got)
	}
}

func TestFrequencyString(t *testing.T) {
	if got := dab.Frequency(197648).String(); got != "197.648 MHz" {
		t.Fatalf("String = %q", got)
	}
}

func TestServiceCarriesIPDT(t *testing.T) {
	cases := []struct {
		name string
		svc  *dab.Service
		want bool
	}{
		{"nil", nil, false},
		{"audio", &dab.Service{Type: dab.ServiceTypeAudio, Components: []*dab.Component{{Primary: true, TypeCode: 59}}}, false},
		{"no primary", &dab.Service{Type: dab.ServiceTypeData, Components: []*dab.Component{{TypeCode: 59}}}, false},
		{"other dscty", &dab.Service{Type: dab.ServiceTypeData, Components: []*dab.Component{{Primary: true, TypeCode: 60}}}, false},
		{"ipdt", &dab.Service{Type: dab.ServiceTypeData, Components: []*dab.Component{{TypeCode: 5}, {Primary: true, TypeCode: 59}}}, true},
	}
	for _, tc := range cases {
		if got := tc.svc.CarriesIPDT(); got != tc.want {
			t.Fatalf("%s: CarriesIPDT = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestServicePacketComponent(t *testing.T) {
	stream := &dab.Component{Transport: dab.TransportStreamData, Primary: true}
	packet := &dab.Component{Transport: dab.TransportPacketData, SubChannel: 4}
	svc := &dab.Service{Type: dab.ServiceTypeData, Components: []*dab.Component{stream, nil, packet}}
	if got := svc.PacketComponent(); got != packet {
		t.Fatalf("PacketComponent = %+v, want the packet-mode component", got)
	}

	primary := &dab.Component{Transport: dab.TransportPacketData, SubChannel: 7, Primary: true}
	svc.Components = append(svc.Components, primary)
	if got := svc.PacketComponent(); got != primary {
		t.Fatalf("PacketComponent = %+v, want the primary component", got)
	}

	if got := (&dab.Service{Components: []*dab.Component{stream}}).PacketComponent(); got != nil {
		t.Fatalf("expected nil for a stream-only service, got %+v", got)
	}
	var none *dab.Service
	if none.PacketComponent() != nil {
		t.Fatal("expected nil for a nil service")
	}
}

func TestParseStatusIsError(t *testing.T) {
	for _, s := range []dab.ParseStatus{dab.StatusOK, dab.StatusIncomplete, dab.StatusInvalidAddress} {
		if s.IsError() {
			t.Fatalf("%v should not be an error", s)
		}
	}
	for _, s := range []dab.ParseStatus{dab.StatusInvalidCRC, dab.StatusDiscontinuity, dab.StatusTruncated} {
		if !s.IsError() {
			t.Fatalf("%v should be an error", s)
		}
	}
}
