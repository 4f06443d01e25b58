package leadsheet

// InsertBars inserts n empty bars before bar, shifting everything at or after
// it. bar may equal Size to append.
//
// Inserting at bar 0 shifts the bar-0 Section too; the new bars get a
// Section with the same time signature and a generated name.
func (s *Store) InsertBars(bar, n int) error {
	if bar < 0 || bar > s.size {
		return invalidf("bar %d outside [0, %d]", bar, s.size)
	}
	if n < 1 || s.size+n > s.rules.maxSize {
		return invalidf("cannot insert %d bar(s) into %d (max %d)", n, s.size, s.rules.maxSize)
	}

	t, err := s.begin("InsertBars")
	if err != nil {
		return err
	}
	init := t.governing(0)
	t.resize(s.size + n)
	t.shift(bar, n)
	if bar == 0 {
		t.insert(NewSection(t.uniqueName(init.Name), init.TimeSignature, 0))
	}
	return t.commit(true)
}

// DeleteBars removes bars [from, to] with everything on them and shifts
// later items back.
//
// When bar 0 is deleted, the bar-0 Section keeps its identity but takes the
// name and time signature of the Section that governed bar to+1; if that
// Section started exactly at to+1 it is merged into bar 0.
// At least one bar must remain.
func (s *Store) DeleteBars(from, to int) error {
	if from < 0 || from > to || to >= s.size {
		return invalidf("bars [%d, %d] outside [0, %d)", from, to, s.size)
	}
	n := to - from + 1
	if n >= s.size {
		return invalidf("cannot delete all %d bar(s)", s.size)
	}

	t, err := s.begin("DeleteBars")
	if err != nil {
		return err
	}
	next := t.governing(to + 1)
	t.removeBars(from, to, true)
	if from == 0 {
		if next.Bar == to+1 {
			t.remove(t.indexOf(next.id))
		}
		i, init, _ := t.sectionAtBar(0)
		if init.Name != next.Name || init.TimeSignature != next.TimeSignature {
			promoted := init
			promoted.Name, promoted.TimeSignature = next.Name, next.TimeSignature
			t.change(i, promoted)
		}
	}
	t.shift(to+1, -n)
	t.resize(s.size - n)
	t.renormalize()
	return t.commit(true)
}

// SetSize changes the number of bars, dropping everything at bar >= n.
func (s *Store) SetSize(n int) error {
	if n < 1 || n > s.rules.maxSize {
		return invalidf("size %d outside [1, %d]", n, s.rules.maxSize)
	}

	t, err := s.begin("SetSize")
	if err != nil {
		return err
	}
	if n < s.size {
		t.removeBars(n, s.size-1, false)
	}
	t.resize(n)
	return t.commit(true)
}
