// Package channels maps Band III channel names to their centre frequencies.
package channels

import (
	"fmt"
	"sort"
	"strings"

	"datarecv/internal/dab"
)

// Channel is one entry of the broadcast band plan.
type Channel struct {
	Name      string
	Frequency dab.Frequency
}

var bandIII = map[string]dab.Frequency{
	"5A": 174928, "5B": 176640, "5C": 178352, "5D": 180064,
	"6A": 181936, "6B": 183648, "6C": 185360, "6D": 187072,
	"7A": 188928, "7B": 190640, "7C": 192352, "7D": 194064,
	"8A": 195936, "8B": 197648, "8C": 199360, "8D": 201072,
	"9A": 202928, "9B": 204640, "9C": 206352, "9D": 208064,
	"10A": 209936, "10N": 210096, "10B": 211648, "10C": 213360, "10D": 215072,
	"11A": 216928, "11N": 217088, "11B": 218640, "11C": 220352, "11D": 222064,
	"12A": 223936, "12N": 224096, "12B": 225648, "12C": 227360, "12D": 229072,
	"13A": 230784, "13B": 232496, "13C": 234208, "13D": 235776, "13E": 237488, "13F": 239200,
}

// Lookup resolves a channel name (case-insensitive) to its frequency.
func Lookup(name string) (dab.Frequency, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	freq, ok := bandIII[key]
	if !ok {
		return 0, fmt.Errorf("unknown channel %q", name)
	}
	return freq, nil
}

// All returns the band plan ordered by frequency.
func All() []Channel {
	out := make([]Channel, 0, len(bandIII))
	for name, freq := range bandIII {
		out = append(out, Channel{Name: name, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Frequency < out[j].Frequency })
	return out
}

// Name returns the channel whose centre frequency is freq.
func Name(freq dab.Frequency) (string, bool) {
	for name, f := range bandIII {
		if f == freq {
			return name, true
		}
	}
	return "", false
}
