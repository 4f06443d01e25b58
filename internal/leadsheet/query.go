package leadsheet

import (
	"fmt"
	"sort"

	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// Items returns every item accepted by f, in order.
func (s *Store) Items(f Filter) []Item {
	return collect(s.items, f)
}

// ItemsInRange returns the items whose position lies in r, in order.
func (s *Store) ItemsInRange(r music.Range, f Filter) []Item {
	return collect(s.span(r), f)
}

// ItemsInBars returns the items whose bar lies in [from, to].
func (s *Store) ItemsInBars(from, to int, f Filter) []Item {
	if from > to {
		return nil
	}
	return s.ItemsInRange(music.Bars(from, to), f)
}

// SectionItems returns the body of sec: the items after it and before the
// next Section, excluding sec itself. It returns nil if sec is not stored.
func (s *Store) SectionItems(sec Section, f Filter) []Item {
	i, cur, ok := s.lookupSection(sec)
	if !ok {
		return nil
	}
	end := s.size - 1
	for _, it := range s.items[i+1:] {
		if next, ok := it.(Section); ok {
			end = next.Bar - 1
			break
		}
	}
	r := music.Range{From: cur.Pos(), FromInclusive: true, To: music.BarStart(end + 1)}
	return collect(s.span(r), And(OrdinaryOnly, f))
}

// SectionAt returns the Section governing bar. Bars past the end resolve to
// the last Section. A negative bar is a programming error.
func (s *Store) SectionAt(bar int) Section {
	if bar < 0 {
		panic(fmt.Sprintf("leadsheet: SectionAt(%d)", bar))
	}
	// Index of the first item at or after bar+1, then scan back.
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].Pos().Bar > bar })
	for i--; i >= 0; i-- {
		if sec, ok := s.items[i].(Section); ok {
			return sec
		}
	}
	panic(&InvariantError{Invariant: "bar-0 section", Detail: "no section at bar 0"})
}

// SectionByName finds a Section by case-insensitive name.
func (s *Store) SectionByName(name string) (Section, bool) {
	key := foldName(name)
	for _, it := range s.items {
		if sec, ok := it.(Section); ok && foldName(sec.Name) == key {
			return sec, true
		}
	}
	return Section{}, false
}

// Sections returns every Section in bar order.
func (s *Store) Sections() []Section {
	var out []Section
	for _, it := range s.items {
		if sec, ok := it.(Section); ok {
			out = append(out, sec)
		}
	}
	return out
}

// FirstItemAfter returns the first item at or after p (strictly after unless
// inclusive) accepted by f.
//
// The reference is a position, not an item: starting exclusively from a
// Section's position also skips the ordinary items at its bar start. Use
// NextItem to continue from a given item.
func (s *Store) FirstItemAfter(p music.Position, inclusive bool, f Filter) (Item, bool) {
	for _, it := range s.span(music.After(p, inclusive)) {
		if f.Match(it) {
			return it, true
		}
	}
	return nil, false
}

// LastItemBefore returns the last item at or before p (strictly before unless
// inclusive) accepted by f.
// Use PrevItem to continue from a given item.
func (s *Store) LastItemBefore(p music.Position, inclusive bool, f Filter) (Item, bool) {
	items := s.span(music.Before(p, inclusive))
	for i := len(items) - 1; i >= 0; i-- {
		if f.Match(items[i]) {
			return items[i], true
		}
	}
	return nil, false
}

// NextItem returns the item following it in Store order that f accepts.
func (s *Store) NextItem(it Item, f Filter) (Item, bool) {
	i := s.indexOf(it.ID())
	if i < 0 {
		return nil, false
	}
	for _, x := range s.items[i+1:] {
		if f.Match(x) {
			return x, true
		}
	}
	return nil, false
}

// PrevItem returns the item preceding it in Store order that f accepts.
func (s *Store) PrevItem(it Item, f Filter) (Item, bool) {
	i := s.indexOf(it.ID())
	for i--; i >= 0; i-- {
		if f.Match(s.items[i]) {
			return s.items[i], true
		}
	}
	return nil, false
}

// Item returns the current snapshot of the item with id.
func (s *Store) Item(id ItemID) (Item, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return nil, false
}

// Contains reports whether it is stored unchanged.
func (s *Store) Contains(it Item) bool {
	cur, ok := s.Item(it.ID())
	return ok && sameItem(cur, it)
}

func (s *Store) indexOf(id ItemID) int {
	if id == 0 {
		return -1
	}
	for i, it := range s.items {
		if it.ID() == id {
			return i
		}
	}
	return -1
}

// lookupSection resolves sec like txn.findSection, on committed state.
func (s *Store) lookupSection(sec Section) (int, Section, bool) {
	for i, it := range s.items {
		cur, ok := it.(Section)
		if !ok {
			continue
		}
		if sec.id != 0 && cur.id == sec.id {
			return i, cur, true
		}
		if sec.id == 0 && cur.Bar == sec.Bar && foldName(cur.Name) == foldName(sec.Name) {
			return i, cur, true
		}
	}
	return -1, Section{}, false
}

// span returns the contiguous run of items inside r.
func (s *Store) span(r music.Range) []Item {
	lo := sort.Search(len(s.items), func(i int) bool { return !r.BeforeStart(s.items[i].Pos()) })
	hi := sort.Search(len(s.items), func(i int) bool { return r.AfterEnd(s.items[i].Pos()) })
	if hi < lo {
		return nil
	}
	return s.items[lo:hi]
}

func collect(items []Item, f Filter) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// sameItem reports whether a and b are the same snapshot.
func sameItem(a, b Item) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID() != b.ID() || a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Section:
		y, ok := b.(Section)
		return ok && x == y
	case OrdinaryItem:
		y, ok := b.(OrdinaryItem)
		if !ok || checkPayload(y.Payload) != nil {
			return false
		}
		return x.Equal(y)
	}
	return false
}
