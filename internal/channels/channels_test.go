package channels_test

import (
	"testing"

	"datarecv/internal/channels"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	freq, err := channels.Lookup(" 8b ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if freq != 197648 {
		t.Fatalf("8B = %d kHz, want 197648", freq)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := channels.Lookup("14A"); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestAllIsSortedByFrequency(t *testing.T) {
	all := channels.All()
	if len(all) != 41 {
		t.Fatalf("expected 41 channels, got %d", len(all))
	}
	if all[0].Name != "5A" || all[len(all)-1].Name != "13F" {
		t.Fatalf("unexpected bounds %s..%s", all[0].Name, all[len(all)-1].Name)
	}
	for i := 1; i < len(all); i++ {
		if all[i].Frequency <= all[i-1].Frequency {
			t.Fatalf("channels not ascending at %s", all[i].Name)
		}
	}
}

func TestNameReverseLookup(t *testing.T) {
	name, ok := channels.Name(197648)
	if !ok || name != "8B" {
		t.Fatalf("Name(197648) = %q, %v", name, ok)
	}
	if _, ok := channels.Name(100000); ok {
		t.Fatal("expected unknown frequency")
	}
}
