package leadsheet

import "github.com/jjazzboss/JJazzLab-sub029/internal/music"

// AddItem inserts it with its beat normalized to the governing time signature.
//
// It returns the stored snapshot. applied is false, with a nil error, when an
// equal item already exists at the normalized position. A snapshot carrying
// an ID not used by this Store keeps it.
func (s *Store) AddItem(it OrdinaryItem) (OrdinaryItem, bool, error) {
	if err := checkPayload(it.Payload); err != nil {
		return OrdinaryItem{}, false, err
	}
	if err := s.checkBar(it.Position.Bar); err != nil {
		return OrdinaryItem{}, false, err
	}
	if err := checkPosition(it.Position); err != nil {
		return OrdinaryItem{}, false, err
	}

	t, err := s.begin("AddItem")
	if err != nil {
		return OrdinaryItem{}, false, err
	}
	ts := t.governing(it.Position.Bar).TimeSignature
	it.Position = it.Position.Normalize(ts, s.rules.epsilon)
	if t.hasEqual(it, 0) {
		return OrdinaryItem{}, false, nil
	}
	added := t.insert(it).(OrdinaryItem)
	if err := t.commit(true); err != nil {
		return OrdinaryItem{}, false, err
	}
	return added, true, nil
}

// RemoveItem removes the stored item identified by it.
// applied is false when no such ordinary item is stored.
func (s *Store) RemoveItem(it OrdinaryItem) (bool, error) {
	t, err := s.begin("RemoveItem")
	if err != nil {
		return false, err
	}
	i, _, ok := t.findOrdinary(it)
	if !ok {
		return false, nil
	}
	t.remove(i)
	return t.applied()
}

// MoveItem relocates it to pos, normalized to the destination bar.
// applied is false when it is not stored, is already there, or an equal item
// exists at the destination.
func (s *Store) MoveItem(it OrdinaryItem, pos music.Position) (bool, error) {
	if err := s.checkBar(pos.Bar); err != nil {
		return false, err
	}
	if err := checkPosition(pos); err != nil {
		return false, err
	}

	t, err := s.begin("MoveItem")
	if err != nil {
		return false, err
	}
	i, cur, ok := t.findOrdinary(it)
	if !ok {
		return false, nil
	}
	moved := cur
	moved.Position = pos.Normalize(t.governing(pos.Bar).TimeSignature, s.rules.epsilon)
	if moved.Position == cur.Position || t.hasEqual(moved, cur.id) {
		return false, nil
	}
	t.move(i, moved)
	return t.applied()
}

// ChangeItem replaces the payload of it, keeping its identity and position.
// applied is false when it is not stored, the payload is unchanged, or an
// item equal to the result already exists.
func (s *Store) ChangeItem(it OrdinaryItem, p Payload) (bool, error) {
	if err := checkPayload(p); err != nil {
		return false, err
	}

	t, err := s.begin("ChangeItem")
	if err != nil {
		return false, err
	}
	i, cur, ok := t.findOrdinary(it)
	if !ok {
		return false, nil
	}
	changed := cur
	changed.Payload = p
	if changed.Payload == cur.Payload || t.hasEqual(changed, cur.id) {
		return false, nil
	}
	t.change(i, changed)
	return t.applied()
}

// applied commits a strict txn and shapes the result of a bool operation.
func (t *txn) applied() (bool, error) {
	if err := t.commit(true); err != nil {
		return false, err
	}
	return true, nil
}
