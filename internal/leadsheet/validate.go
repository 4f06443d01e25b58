package leadsheet

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// checkName validates a section name and returns its cleaned form.
func (r *rules) checkName(name string) (string, error) {
	clean := cleanName(name)
	if clean == "" {
		return "", invalidf("blank section name")
	}
	if strings.ContainsFunc(clean, unicode.IsControl) {
		return "", invalidf("section name %q contains control characters", clean)
	}
	if _, ok := r.reserved[foldName(clean)]; ok {
		return "", invalidf("section name %q is reserved", clean)
	}
	return clean, nil
}

func (s *Store) checkBar(bar int) error {
	if bar < 0 || bar >= s.size {
		return invalidf("bar %d outside [0, %d)", bar, s.size)
	}
	return nil
}

func checkPosition(p music.Position) error {
	if p.Beat.Sign() < 0 {
		return invalidf("negative beat %s", p.Beat)
	}
	return nil
}

// checkInvariants verifies a sorted item slice against every Store invariant.
func checkInvariants(items []Item, size int) error {
	fail := func(inv, format string, args ...any) error {
		return &InvariantError{Invariant: inv, Detail: fmt.Sprintf(format, args...)}
	}

	if size < 1 {
		return fail("size", "size %d", size)
	}
	if len(items) == 0 {
		return fail("bar-0 section", "empty leadsheet")
	}
	if s, ok := items[0].(Section); !ok || s.Bar != 0 {
		return fail("bar-0 section", "first item is %v", items[0])
	}

	names := make(map[string]int)
	ids := make(map[ItemID]bool, len(items))
	var ts music.TimeSignature
	run := 0 // start of the current same-position run

	for i, it := range items {
		if it.ID() == 0 || ids[it.ID()] {
			return fail("identity", "missing or duplicate id on %v", it)
		}
		ids[it.ID()] = true

		p := it.Pos()
		if p.Bar < 0 || p.Bar >= size {
			return fail("bar range", "%v outside [0, %d)", it, size)
		}
		if i > 0 {
			if compareItems(items[i-1], it) >= 0 {
				return fail("order", "%v sorts after %v", items[i-1], it)
			}
			if p != items[i-1].Pos() {
				run = i
			}
		}

		switch v := it.(type) {
		case Section:
			if !v.TimeSignature.Valid() {
				return fail("time signature", "%v", v)
			}
			if i > 0 && items[i-1].Pos().Bar == v.Bar && items[i-1].Kind() == KindSection {
				return fail("one section per bar", "bar %d", v.Bar)
			}
			key := foldName(v.Name)
			if prev, dup := names[key]; dup {
				return fail("unique section name", "%q at bars %d and %d", v.Name, prev, v.Bar)
			}
			names[key] = v.Bar
			ts = v.TimeSignature
		case OrdinaryItem:
			if err := checkPayload(v.Payload); err != nil {
				return fail("payload", "%v: %v", v, err)
			}
			if !p.IsNormalized(ts) {
				return fail("beat normalization", "%v under %s", v, ts)
			}
			for j := run; j < i; j++ {
				if o, ok := items[j].(OrdinaryItem); ok && o.Equal(v) {
					return fail("no duplicates", "%v", v)
				}
			}
		}
	}
	return nil
}
