package leadsheet

// opClock stamps committed operations with strictly increasing sequence
// numbers. A Store is single-writer, so no synchronization is needed.
type opClock struct {
	last int64
}

func (c *opClock) next() int64 {
	c.last++
	return c.last
}
