package music

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"
	"strings"
)

// ErrInvalidBeat is returned when a beat literal cannot be parsed.
var ErrInvalidBeat = errors.New("invalid beat")

// Beat is an exact rational offset inside a bar, counted in natural beats.
//
// Values are always reduced with a positive denominator, so == compares
// beats by value. The denominator is stored minus one so that the zero
// value is beat 0.
type Beat struct {
	num  int64
	den1 int64
}

// NewBeat returns num/den reduced. Panics if den is zero or either
// argument is math.MinInt64.
func NewBeat(num, den int64) Beat {
	if den == 0 {
		panic("music: zero beat denominator")
	}
	if num == math.MinInt64 || den == math.MinInt64 {
		panic("music: beat out of range")
	}
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs(num), den); g > 1 {
		num, den = num/g, den/g
	}
	return Beat{num: num, den1: den - 1}
}

// Beats returns the whole beat n.
func Beats(n int64) Beat {
	return NewBeat(n, 1)
}

// ParseBeat parses "3", "3.5" or "7/2".
func ParseBeat(s string) (Beat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Beat{}, fmt.Errorf("%w: empty", ErrInvalidBeat)
	}

	if n, d, ok := strings.Cut(s, "/"); ok {
		num, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil || num == math.MinInt64 {
			return Beat{}, fmt.Errorf("%w: %q", ErrInvalidBeat, s)
		}
		den, err := strconv.ParseInt(strings.TrimSpace(d), 10, 64)
		if err != nil || den == 0 || den == math.MinInt64 {
			return Beat{}, fmt.Errorf("%w: %q", ErrInvalidBeat, s)
		}
		return NewBeat(num, den), nil
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if !hasFrac {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n == math.MinInt64 {
			return Beat{}, fmt.Errorf("%w: %q", ErrInvalidBeat, s)
		}
		return Beats(n), nil
	}

	// Decimal literal: scale by 10^len(frac). Limited to 9 fractional digits.
	if frac == "" || len(frac) > 9 {
		return Beat{}, fmt.Errorf("%w: %q", ErrInvalidBeat, s)
	}
	neg := strings.HasPrefix(whole, "-")
	if whole == "" || whole == "-" {
		whole += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w == math.MinInt64 || abs(w) > (math.MaxInt64-1_000_000_000)/1_000_000_000 {
		return Beat{}, fmt.Errorf("%w: %q", ErrInvalidBeat, s)
	}
	f, err := strconv.ParseUint(frac, 10, 32)
	if err != nil {
		return Beat{}, fmt.Errorf("%w: %q", ErrInvalidBeat, s)
	}
	den := int64(1)
	for range frac {
		den *= 10
	}
	num := abs(w)*den + int64(f)
	if neg {
		num = -num
	}
	return NewBeat(num, den), nil
}

// MustParseBeat is like ParseBeat but panics on error.
// Use only in tests or for literals known to be valid.
func MustParseBeat(s string) Beat {
	b, err := ParseBeat(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Num returns the reduced numerator.
func (b Beat) Num() int64 { return b.num }

// Den returns the reduced, always positive denominator.
func (b Beat) Den() int64 { return b.den1 + 1 }

// Cmp returns -1, 0 or +1 depending on whether b is less than, equal to or
// greater than o. Cross products are computed on 128 bits.
func (b Beat) Cmp(o Beat) int {
	if bs, ps := b.Sign(), o.Sign(); bs != ps || bs == 0 {
		return cmp.Compare(bs, ps)
	}
	lhi, llo := bits.Mul64(uint64(abs(b.num)), uint64(o.Den()))
	rhi, rlo := bits.Mul64(uint64(abs(o.num)), uint64(b.Den()))
	c := cmp.Compare(lhi, rhi)
	if c == 0 {
		c = cmp.Compare(llo, rlo)
	}
	if b.num < 0 {
		return -c
	}
	return c
}

// Less reports whether b < o.
func (b Beat) Less(o Beat) bool { return b.Cmp(o) < 0 }

// Add returns b+o. Panics if the reduced result does not fit in int64.
func (b Beat) Add(o Beat) Beat {
	return fromRat(new(big.Rat).Add(b.rat(), o.rat()))
}

// Sub returns b-o. Panics if the reduced result does not fit in int64.
func (b Beat) Sub(o Beat) Beat {
	return fromRat(new(big.Rat).Sub(b.rat(), o.rat()))
}

func (b Beat) rat() *big.Rat {
	return new(big.Rat).SetFrac(big.NewInt(b.num), big.NewInt(b.Den()))
}

func fromRat(r *big.Rat) Beat {
	num, den := r.Num(), r.Denom()
	if !num.IsInt64() || !den.IsInt64() || num.Int64() == math.MinInt64 {
		panic(fmt.Sprintf("music: beat %s out of range", r.RatString()))
	}
	return Beat{num: num.Int64(), den1: den.Int64() - 1}
}

// Sign returns -1, 0 or +1.
func (b Beat) Sign() int {
	switch {
	case b.num < 0:
		return -1
	case b.num > 0:
		return 1
	}
	return 0
}

// IsZero reports whether b is beat 0.
func (b Beat) IsZero() bool { return b.num == 0 }

// Float64 returns the nearest float64. For display only.
func (b Beat) Float64() float64 {
	return float64(b.num) / float64(b.Den())
}

// String returns "3" for whole beats and "7/2" otherwise.
func (b Beat) String() string {
	if b.Den() == 1 {
		return strconv.FormatInt(b.num, 10)
	}
	return strconv.FormatInt(b.num, 10) + "/" + strconv.FormatInt(b.Den(), 10)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
