package leadsheet

import "fmt"

// ApplyEvents commits an already shaped event batch as one operation named
// name. It is how inverse edits (undo, redo) and journaled edits are
// replayed.
//
// Each event must match the current state exactly: removed, changed and
// moved items must be stored with the given old snapshot, added items must
// carry an unused ID. The resulting state must satisfy every invariant.
// Otherwise nothing changes and the error wraps ErrInconsistentEdit.
// Listeners see the batch through the usual Authorize/Changed protocol and
// may veto it.
func (s *Store) ApplyEvents(name string, events []Event) error {
	t, err := s.begin(name)
	if err != nil {
		return err
	}
	for i, ev := range events {
		if err := t.apply(ev); err != nil {
			return fmt.Errorf("%w: event %d (%s): %v", ErrInconsistentEdit, i, Describe(ev), err)
		}
	}
	return t.commit(false)
}

func (t *txn) apply(ev Event) error {
	switch e := ev.(type) {
	case ItemAdded:
		if e.Item == nil || e.Item.ID() == 0 {
			return fmt.Errorf("added item has no id")
		}
		if err := checkSnapshot(e.Item); err != nil {
			return err
		}
		if t.indexOf(e.Item.ID()) >= 0 {
			return fmt.Errorf("id %d already in use", e.Item.ID())
		}
		t.insert(e.Item)
	case ItemRemoved:
		i, err := t.expect(e.Item)
		if err != nil {
			return err
		}
		t.remove(i)
	case ItemChanged:
		i, err := t.expect(e.Old)
		if err != nil {
			return err
		}
		if err := checkSnapshot(e.New); err != nil {
			return err
		}
		if e.New.ID() != e.Old.ID() || e.New.Pos() != e.Old.Pos() {
			return fmt.Errorf("change must keep id and position")
		}
		if (e.Old.Kind() == KindSection) != (e.New.Kind() == KindSection) {
			return fmt.Errorf("change cannot turn a section into an ordinary item")
		}
		t.change(i, e.New)
	case ItemMoved:
		i, err := t.expect(e.Old)
		if err != nil {
			return err
		}
		if e.New.id != e.Old.id || e.New.Payload != e.Old.Payload {
			return fmt.Errorf("move must keep id and payload")
		}
		t.move(i, e.New)
	case SectionMoved:
		i, err := t.expect(e.Old)
		if err != nil {
			return err
		}
		if e.New.id != e.Old.id || e.New.Name != e.Old.Name || e.New.TimeSignature != e.Old.TimeSignature {
			return fmt.Errorf("section move must keep id, name and time signature")
		}
		t.moveSection(i, e.New)
	case ItemBarShifted:
		return t.shiftItems(e.Items, e.Delta)
	case SizeChanged:
		if e.Old != t.size {
			return fmt.Errorf("size is %d, not %d", t.size, e.Old)
		}
		if e.New < 1 || e.New > t.s.rules.maxSize {
			return fmt.Errorf("size %d outside [1, %d]", e.New, t.s.rules.maxSize)
		}
		t.resize(e.New)
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}
	return nil
}

// expect returns the index of the stored item identical to it.
func (t *txn) expect(it Item) (int, error) {
	if it == nil {
		return -1, fmt.Errorf("missing item")
	}
	if err := checkSnapshot(it); err != nil {
		return -1, err
	}
	i := t.indexOf(it.ID())
	if i < 0 {
		return -1, fmt.Errorf("id %d not stored", it.ID())
	}
	if !sameItem(t.items[i], it) {
		return -1, fmt.Errorf("stored %v differs from %v", t.items[i], it)
	}
	return i, nil
}

// shiftItems moves exactly the given items by delta bars.
func (t *txn) shiftItems(items []Item, delta int) error {
	if len(items) == 0 || delta == 0 {
		return fmt.Errorf("empty shift")
	}
	idx := make([]int, len(items))
	for k, it := range items {
		i, err := t.expect(it)
		if err != nil {
			return err
		}
		idx[k] = i
	}
	for k, i := range idx {
		t.items[i] = withBar(items[k], items[k].Pos().Bar+delta)
	}
	t.dirty = true
	t.events = append(t.events, ItemBarShifted{Items: items, Delta: delta})
	return nil
}

// checkSnapshot rejects snapshots whose fields could not have come from a Store.
func checkSnapshot(it Item) error {
	switch v := it.(type) {
	case Section:
		if !v.TimeSignature.Valid() || cleanName(v.Name) == "" {
			return fmt.Errorf("malformed section %v", v)
		}
	case OrdinaryItem:
		if err := checkPayload(v.Payload); err != nil {
			return err
		}
		if err := checkPosition(v.Position); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown item type %T", it)
	}
	return nil
}
