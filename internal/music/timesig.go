package music

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeSignature is returned for unsupported or malformed time signatures.
var ErrInvalidTimeSignature = errors.New("invalid time signature")

// TimeSignature is an Upper/Lower meter such as 4/4 or 6/8.
type TimeSignature struct {
	Upper int
	Lower int
}

// Common time signatures.
var (
	TwoFour     = TimeSignature{2, 4}
	ThreeFour   = TimeSignature{3, 4}
	FourFour    = TimeSignature{4, 4}
	FiveFour    = TimeSignature{5, 4}
	SixFour     = TimeSignature{6, 4}
	SevenFour   = TimeSignature{7, 4}
	TwoTwo      = TimeSignature{2, 2}
	ThreeEight  = TimeSignature{3, 8}
	SixEight    = TimeSignature{6, 8}
	NineEight   = TimeSignature{9, 8}
	TwelveEight = TimeSignature{12, 8}
)

// MaxUpper is the largest supported numerator.
const MaxUpper = 16

// Valid reports whether ts is supported: Upper in [1, MaxUpper], Lower one of 2, 4, 8.
func (ts TimeSignature) Valid() bool {
	if ts.Upper < 1 || ts.Upper > MaxUpper {
		return false
	}
	switch ts.Lower {
	case 2, 4, 8:
		return true
	}
	return false
}

// NaturalBeats returns the number of quarter-note beats in one bar.
// 4/4 has 4, 6/8 has 3, 3/8 has 3/2. Valid beats of a bar are [0, NaturalBeats).
func (ts TimeSignature) NaturalBeats() Beat {
	return NewBeat(int64(ts.Upper)*4, int64(ts.Lower))
}

// String returns "4/4".
func (ts TimeSignature) String() string {
	return strconv.Itoa(ts.Upper) + "/" + strconv.Itoa(ts.Lower)
}

// ParseTimeSignature parses "3/4" and validates the result.
func ParseTimeSignature(s string) (TimeSignature, error) {
	u, l, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	upper, err := strconv.Atoi(strings.TrimSpace(u))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	lower, err := strconv.Atoi(strings.TrimSpace(l))
	if err != nil {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	ts := TimeSignature{Upper: upper, Lower: lower}
	if !ts.Valid() {
		return TimeSignature{}, fmt.Errorf("%w: %q", ErrInvalidTimeSignature, s)
	}
	return ts, nil
}
