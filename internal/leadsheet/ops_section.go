package leadsheet

import "github.com/jjazzboss/JJazzLab-sub029/internal/music"

// AddSection inserts sec at its bar and renormalizes the bars it now governs.
//
// When a Section already starts at that bar it is updated in place with the
// new name and time signature, keeping its identity, and that Section is
// returned. applied is false when the name belongs to a different Section or
// nothing would change.
func (s *Store) AddSection(sec Section) (Section, bool, error) {
	name, err := s.rules.checkName(sec.Name)
	if err != nil {
		return Section{}, false, err
	}
	if !sec.TimeSignature.Valid() {
		return Section{}, false, invalidf("time signature %s", sec.TimeSignature)
	}
	if err := s.checkBar(sec.Bar); err != nil {
		return Section{}, false, err
	}
	sec.Name = name

	t, err := s.begin("AddSection")
	if err != nil {
		return Section{}, false, err
	}
	if other, used := t.sectionByName(name); used && other.Bar != sec.Bar {
		return Section{}, false, nil
	}

	var result Section
	if i, cur, ok := t.sectionAtBar(sec.Bar); ok {
		if cur.Name == sec.Name && cur.TimeSignature == sec.TimeSignature {
			return cur, false, nil
		}
		result = cur
		result.Name, result.TimeSignature = sec.Name, sec.TimeSignature
		t.change(i, result)
	} else {
		result = t.insert(sec).(Section)
	}
	t.renormalize()
	if err := t.commit(true); err != nil {
		return Section{}, false, err
	}
	return result, true, nil
}

// RemoveSection removes sec. Its bars join the preceding Section and are
// renormalized to its time signature. The bar-0 Section is never removed.
func (s *Store) RemoveSection(sec Section) (bool, error) {
	t, err := s.begin("RemoveSection")
	if err != nil {
		return false, err
	}
	i, cur, ok := t.findSection(sec)
	if !ok || cur.Bar == 0 {
		return false, nil
	}
	t.remove(i)
	t.renormalize()
	return t.applied()
}

// SetSectionName renames sec. A blank or reserved name is an invalid
// argument; a name used by another Section is a conflict.
func (s *Store) SetSectionName(sec Section, name string) (bool, error) {
	clean, err := s.rules.checkName(name)
	if err != nil {
		return false, err
	}

	t, err := s.begin("SetSectionName")
	if err != nil {
		return false, err
	}
	i, cur, ok := t.findSection(sec)
	if !ok || cur.Name == clean {
		return false, nil
	}
	if other, used := t.sectionByName(clean); used && other.id != cur.id {
		return false, nil
	}
	renamed := cur
	renamed.Name = clean
	t.change(i, renamed)
	return t.applied()
}

// SetSectionTimeSignature changes the time signature of sec and renormalizes
// its body. Items that collapse onto an equal item are dropped, keeping the
// earliest.
func (s *Store) SetSectionTimeSignature(sec Section, ts music.TimeSignature) (bool, error) {
	if !ts.Valid() {
		return false, invalidf("time signature %s", ts)
	}

	t, err := s.begin("SetSectionTimeSignature")
	if err != nil {
		return false, err
	}
	i, cur, ok := t.findSection(sec)
	if !ok || cur.TimeSignature == ts {
		return false, nil
	}
	changed := cur
	changed.TimeSignature = ts
	t.change(i, changed)
	t.renormalize()
	return t.applied()
}

// MoveSection moves sec to bar. Items keep their positions; only the
// Section governing them may change, with renormalization as needed.
// The bar-0 Section cannot move and no Section can move onto an occupied bar.
func (s *Store) MoveSection(sec Section, bar int) (bool, error) {
	if err := s.checkBar(bar); err != nil {
		return false, err
	}

	t, err := s.begin("MoveSection")
	if err != nil {
		return false, err
	}
	i, cur, ok := t.findSection(sec)
	if !ok || cur.Bar == 0 || cur.Bar == bar {
		return false, nil
	}
	if _, _, occupied := t.sectionAtBar(bar); occupied {
		return false, nil
	}
	moved := cur
	moved.Bar = bar
	t.moveSection(i, moved)
	t.renormalize()
	return t.applied()
}
