package reassembly

import "fmt"

const (
	DefaultStripOffset = 1024
	DefaultStripLength = 6
)

// FixedOffsetStrip removes Length bytes immediately after the byte at the
// 1-based position Offset. It applies at most once per group; groups of
// Offset bytes or fewer pass through unchanged.
type FixedOffsetStrip struct {
	Offset int
	Length int
}

// DefaultStrip returns the strip applied to IPDT groups.
func DefaultStrip() FixedOffsetStrip {
	return FixedOffsetStrip{Offset: DefaultStripOffset, Length: DefaultStripLength}
}

func (s FixedOffsetStrip) String() string {
	return fmt.Sprintf("fixed-offset-strip(offset=%d,length=%d)", s.Offset, s.Length)
}

// Validate rejects negative parameters.
func (s FixedOffsetStrip) Validate() error {
	if s.Offset < 0 || s.Length < 0 {
		return fmt.Errorf("strip offset and length must be non-negative (got %d, %d)", s.Offset, s.Length)
	}
	return nil
}

// Apply returns a new slice with the strip applied.
func (s FixedOffsetStrip) Apply(payload []byte) []byte {
	out := make([]byte, 0, len(payload))
	skip := 0
	for i, b := range payload {
		count := i + 1
		if skip > 0 {
			skip--
			continue
		}
		if count == s.Offset {
			skip = s.Length
		}
		out = append(out, b)
	}
	return out
}
