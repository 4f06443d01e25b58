package music

import "fmt"

// Position locates something inside a leadsheet: a bar index and a beat
// offset within that bar.
type Position struct {
	Bar  int
	Beat Beat
}

// At returns the position (bar, beat).
func At(bar int, beat Beat) Position {
	return Position{Bar: bar, Beat: beat}
}

// BarStart returns beat 0 of bar.
func BarStart(bar int) Position {
	return Position{Bar: bar}
}

// Compare orders positions by bar, then beat.
func (p Position) Compare(o Position) int {
	switch {
	case p.Bar < o.Bar:
		return -1
	case p.Bar > o.Bar:
		return 1
	}
	return p.Beat.Cmp(o.Beat)
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool { return p.Compare(o) < 0 }

// IsBarStart reports whether p is at beat 0.
func (p Position) IsBarStart() bool { return p.Beat.IsZero() }

// IsNormalized reports whether the beat lies in [0, ts.NaturalBeats()).
func (p Position) IsNormalized(ts TimeSignature) bool {
	return p.Beat.Sign() >= 0 && p.Beat.Less(ts.NaturalBeats())
}

// Normalize returns p with its beat clamped into ts. The bar never changes.
func (p Position) Normalize(ts TimeSignature, eps Beat) Position {
	return Position{Bar: p.Bar, Beat: ClampBeat(p.Beat, ts, eps)}
}

// ClampBeat maps b into [0, ts.NaturalBeats()).
//
// A beat that still fits is returned unchanged. A beat at or past the end of
// the bar becomes NaturalBeats-eps, the last valid beat at resolution eps.
// Negative beats become 0.
func ClampBeat(b Beat, ts TimeSignature, eps Beat) Beat {
	if b.Sign() < 0 {
		return Beat{}
	}
	nb := ts.NaturalBeats()
	if b.Less(nb) {
		return b
	}
	last := nb.Sub(eps)
	if last.Sign() < 0 {
		return Beat{}
	}
	return last
}

// String returns "bar:beat", e.g. "3:7/2".
func (p Position) String() string {
	return fmt.Sprintf("%d:%s", p.Bar, p.Beat)
}
