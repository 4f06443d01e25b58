package leadsheet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Dump returns a deterministic text form of the leadsheet, one item per line:
//
//	size 8
//	#1 0:0 section "A" 4/4
//	#2 1:3 chord "Cm7"
func (s *Store) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "size %d\n", s.size)
	for _, it := range s.items {
		b.WriteString(DumpItem(it))
		b.WriteByte('\n')
	}
	return b.String()
}

// DumpItem formats one item the way Dump does.
func DumpItem(it Item) string {
	switch v := it.(type) {
	case Section:
		return fmt.Sprintf("#%d %s section %q %s", v.id, v.Pos(), v.Name, v.TimeSignature)
	case OrdinaryItem:
		return fmt.Sprintf("#%d %s %s %q", v.id, v.Position, v.Kind(), payloadText(v.Payload))
	}
	return fmt.Sprintf("%v", it)
}

// Equal reports whether s and o hold the same size and items, IDs included.
func (s *Store) Equal(o *Store) bool {
	if s.size != o.size || len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if !sameItem(s.items[i], o.items[i]) {
			return false
		}
	}
	return true
}

// Fingerprint is the hex BLAKE3 digest of Dump.
func (s *Store) Fingerprint() string {
	sum := blake3.Sum256([]byte(s.Dump()))
	return hex.EncodeToString(sum[:])
}
