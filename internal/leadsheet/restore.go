package leadsheet

import (
	"fmt"
	"slices"
)

// Restore rebuilds a Store from a saved state: its size and every item
// snapshot with its ID. The state must satisfy every invariant.
func (f *Factory) Restore(size int, items []Item) (*Store, error) {
	r := f.rules()
	if size < 1 || size > r.maxSize {
		return nil, invalidf("size %d outside [1, %d]", size, r.maxSize)
	}
	sorted := slices.Clone(items)
	var next ItemID = 1
	for _, it := range sorted {
		if err := checkSnapshot(it); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInconsistentEdit, err)
		}
		if sec, ok := it.(Section); ok {
			if _, err := r.checkName(sec.Name); err != nil {
				return nil, err
			}
		}
		if it.ID() >= next {
			next = it.ID() + 1
		}
	}
	slices.SortFunc(sorted, compareItems)
	if err := checkInvariants(sorted, size); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInconsistentEdit, err)
	}
	return &Store{
		rules:  r,
		logger: f.logger,
		clock:  &opClock{},
		size:   size,
		items:  sorted,
		nextID: next,
	}, nil
}
