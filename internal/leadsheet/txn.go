package leadsheet

import (
	"fmt"
	"slices"
)

// txn is the scratch state of one operation.
//
// Primitives mutate the scratch copy and record the matching Event, so the
// event list always describes exactly the difference between the Store and
// the scratch state. Nothing touches the Store until commit.
type txn struct {
	s      *Store
	name   string
	items  []Item
	size   int
	nextID ItemID
	events []Event
	dirty  bool
}

func (s *Store) begin(name string) (*txn, error) {
	if s.editing {
		return nil, ErrReentrantEdit
	}
	return &txn{
		s:      s,
		name:   name,
		items:  slices.Clone(s.items),
		size:   s.size,
		nextID: s.nextID,
	}, nil
}

func (t *txn) sort() {
	if t.dirty {
		slices.SortFunc(t.items, compareItems)
		t.dirty = false
	}
}

func (t *txn) indexOf(id ItemID) int {
	if id == 0 {
		return -1
	}
	for i, it := range t.items {
		if it.ID() == id {
			return i
		}
	}
	return -1
}

// findOrdinary resolves a snapshot by ID, or by equality when it has none.
func (t *txn) findOrdinary(it OrdinaryItem) (int, OrdinaryItem, bool) {
	if it.id != 0 {
		i := t.indexOf(it.id)
		if i < 0 {
			return -1, OrdinaryItem{}, false
		}
		cur, ok := t.items[i].(OrdinaryItem)
		return i, cur, ok
	}
	if it.Payload == nil {
		return -1, OrdinaryItem{}, false
	}
	for i, x := range t.items {
		if cur, ok := x.(OrdinaryItem); ok && cur.Equal(it) {
			return i, cur, true
		}
	}
	return -1, OrdinaryItem{}, false
}

// findSection resolves a snapshot by ID, or by bar and name when it has none.
func (t *txn) findSection(sec Section) (int, Section, bool) {
	if sec.id != 0 {
		i := t.indexOf(sec.id)
		if i < 0 {
			return -1, Section{}, false
		}
		cur, ok := t.items[i].(Section)
		return i, cur, ok
	}
	i, cur, ok := t.sectionAtBar(sec.Bar)
	if !ok || foldName(cur.Name) != foldName(sec.Name) {
		return -1, Section{}, false
	}
	return i, cur, true
}

func (t *txn) sectionAtBar(bar int) (int, Section, bool) {
	for i, it := range t.items {
		if s, ok := it.(Section); ok && s.Bar == bar {
			return i, s, true
		}
	}
	return -1, Section{}, false
}

func (t *txn) sectionByName(name string) (Section, bool) {
	key := foldName(name)
	for _, it := range t.items {
		if s, ok := it.(Section); ok && foldName(s.Name) == key {
			return s, true
		}
	}
	return Section{}, false
}

// governing returns the Section governing bar: the last one at or before it.
func (t *txn) governing(bar int) Section {
	var gov Section
	found := false
	for _, it := range t.items {
		if s, ok := it.(Section); ok && s.Bar <= bar && (!found || s.Bar > gov.Bar) {
			gov, found = s, true
		}
	}
	if !found {
		panic(&InvariantError{Invariant: "bar-0 section", Detail: "no section governs bar " + fmt.Sprint(bar)})
	}
	return gov
}

// hasEqual reports whether an ordinary item other than except equals it.
func (t *txn) hasEqual(it OrdinaryItem, except ItemID) bool {
	for _, x := range t.items {
		if o, ok := x.(OrdinaryItem); ok && o.id != except && o.Equal(it) {
			return true
		}
	}
	return false
}

// uniqueName derives an unused, non-reserved section name from base.
func (t *txn) uniqueName(base string) string {
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, used := t.sectionByName(candidate); used {
			continue
		}
		if _, err := t.s.rules.checkName(candidate); err != nil {
			continue
		}
		return candidate
	}
}

func (t *txn) insert(it Item) Item {
	id := it.ID()
	if id == 0 || t.indexOf(id) >= 0 {
		id = t.nextID
	}
	if id >= t.nextID {
		t.nextID = id + 1
	}
	it = withID(it, id)
	t.items = append(t.items, it)
	t.dirty = true
	t.events = append(t.events, ItemAdded{Item: it})
	return it
}

func (t *txn) remove(i int) {
	it := t.items[i]
	t.items = slices.Delete(t.items, i, i+1)
	t.events = append(t.events, ItemRemoved{Item: it})
}

func (t *txn) change(i int, it Item) {
	old := t.items[i]
	t.items[i] = it
	t.dirty = true
	t.events = append(t.events, ItemChanged{Old: old, New: it})
}

func (t *txn) move(i int, it OrdinaryItem) {
	old := t.items[i].(OrdinaryItem)
	t.items[i] = it
	t.dirty = true
	t.events = append(t.events, ItemMoved{Old: old, New: it})
}

func (t *txn) moveSection(i int, sec Section) {
	old := t.items[i].(Section)
	t.items[i] = sec
	t.dirty = true
	t.events = append(t.events, SectionMoved{Old: old, New: sec})
}

// shift moves every item at or after fromBar by delta bars.
func (t *txn) shift(fromBar, delta int) {
	if delta == 0 {
		return
	}
	var shifted []Item
	for i, it := range t.items {
		if bar := it.Pos().Bar; bar >= fromBar {
			shifted = append(shifted, it)
			t.items[i] = withBar(it, bar+delta)
		}
	}
	if len(shifted) == 0 {
		return
	}
	t.dirty = true
	t.events = append(t.events, ItemBarShifted{Items: shifted, Delta: delta})
}

func (t *txn) resize(n int) {
	if n == t.size {
		return
	}
	t.events = append(t.events, SizeChanged{Old: t.size, New: n})
	t.size = n
}

// removeBars removes every item whose bar lies in [from, to], keeping the
// Section at bar 0 when keepInit is set.
func (t *txn) removeBars(from, to int, keepInit bool) {
	for i := 0; i < len(t.items); {
		it := t.items[i]
		bar := it.Pos().Bar
		if bar < from || bar > to || (keepInit && bar == 0 && it.Kind() == KindSection) {
			i++
			continue
		}
		t.remove(i)
	}
}

// renormalize re-clamps every ordinary item to its governing time signature.
// Items are visited in order; when a clamped item would equal an earlier one
// it is dropped instead, so the earliest of a colliding group survives.
func (t *txn) renormalize() {
	t.sort()
	var ords []OrdinaryItem
	for _, it := range t.items {
		if o, ok := it.(OrdinaryItem); ok {
			ords = append(ords, o)
		}
	}
	for _, o := range ords {
		ts := t.governing(o.Position.Bar).TimeSignature
		np := o.Position.Normalize(ts, t.s.rules.epsilon)
		if np == o.Position {
			continue
		}
		moved := o
		moved.Position = np
		i := t.indexOf(o.id)
		if t.hasEqual(moved, o.id) {
			t.remove(i)
			continue
		}
		t.move(i, moved)
	}
}

// commit runs the change protocol over the recorded events.
// With strict set, a broken invariant is a fatal internal fault; otherwise
// it is reported as ErrInconsistentEdit.
func (t *txn) commit(strict bool) error {
	if len(t.events) == 0 {
		return nil
	}
	t.sort()
	if err := checkInvariants(t.items, t.size); err != nil {
		if strict {
			panic(err)
		}
		return fmt.Errorf("%w: %v", ErrInconsistentEdit, err)
	}

	s := t.s
	op := Operation{Name: t.name, Seq: s.clock.next()}
	for i, ev := range t.events {
		t.events[i] = stamp(ev, op)
	}

	s.editing = true
	defer func() { s.editing = false }()

	listeners := slices.Clone(s.listeners)
	for _, ev := range t.events {
		for _, l := range listeners {
			if v := l.Authorize(ev); v.Vetoed() {
				s.logger.Info("leadsheet edit vetoed",
					"op", op.Name, "seq", op.Seq, "reason", v.Reason(), "event", Describe(ev))
				return &VetoError{Reason: v.Reason(), Event: ev}
			}
		}
	}

	s.items, s.size, s.nextID = t.items, t.size, t.nextID

	s.logger.Debug("leadsheet edit committed",
		"op", op.Name, "seq", op.Seq, "events", len(t.events), "size", s.size)

	for _, ev := range t.events {
		for _, l := range slices.Clone(s.listeners) {
			l.Changed(ev)
		}
	}
	return nil
}
