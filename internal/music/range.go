package music

// Range is an interval of positions with explicit bound inclusivity.
//
// Range lookups over a sorted sequence are two binary searches:
// the first element not BeforeStart, and the first element AfterEnd.
type Range struct {
	From          Position
	To            Position
	FromInclusive bool
	ToInclusive   bool
}

// Closed returns [from, to].
func Closed(from, to Position) Range {
	return Range{From: from, To: to, FromInclusive: true, ToInclusive: true}
}

// Bars returns the range covering every beat of bars [from, to].
func Bars(from, to int) Range {
	return Range{From: BarStart(from), To: BarStart(to + 1), FromInclusive: true}
}

// After returns (p, +inf) or [p, +inf) when inclusive.
func After(p Position, inclusive bool) Range {
	return Range{From: p, FromInclusive: inclusive, To: Position{Bar: int(^uint(0) >> 1)}, ToInclusive: true}
}

// Before returns [0:0, p) or [0:0, p] when inclusive.
func Before(p Position, inclusive bool) Range {
	return Range{From: Position{}, FromInclusive: true, To: p, ToInclusive: inclusive}
}

// BeforeStart reports whether p lies before the lower bound.
func (r Range) BeforeStart(p Position) bool {
	c := p.Compare(r.From)
	if r.FromInclusive {
		return c < 0
	}
	return c <= 0
}

// AfterEnd reports whether p lies after the upper bound.
func (r Range) AfterEnd(p Position) bool {
	c := p.Compare(r.To)
	if r.ToInclusive {
		return c > 0
	}
	return c >= 0
}

// Contains reports whether p lies inside r.
func (r Range) Contains(p Position) bool {
	return !r.BeforeStart(p) && !r.AfterEnd(p)
}
