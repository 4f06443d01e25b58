package leadsheet

// Filter selects items in queries. A nil Filter matches everything.
type Filter func(Item) bool

// Predefined filters.
var (
	AllItems     Filter
	SectionsOnly Filter = func(it Item) bool { return it.Kind() == KindSection }
	OrdinaryOnly Filter = func(it Item) bool { return it.Kind() != KindSection }
)

// OfKind matches items of any of the given kinds.
func OfKind(kinds ...Kind) Filter {
	return func(it Item) bool {
		for _, k := range kinds {
			if it.Kind() == k {
				return true
			}
		}
		return false
	}
}

// And matches items accepted by every non-nil filter.
func And(filters ...Filter) Filter {
	return func(it Item) bool {
		for _, f := range filters {
			if !f.Match(it) {
				return false
			}
		}
		return true
	}
}

// Match reports whether f accepts it.
func (f Filter) Match(it Item) bool {
	return f == nil || f(it)
}
