package leadsheet

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"

	"github.com/jjazzboss/JJazzLab-sub029/internal/config"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// ItemID is a stable handle assigned by a Store. Zero means "not stored yet".
type ItemID uint64

// Kind names the type of an item.
type Kind string

const (
	KindSection    Kind = "section"
	KindChord      Kind = "chord"
	KindAnnotation Kind = "annotation"
)

// Item is a sealed interface over Section and OrdinaryItem.
type Item interface {
	ID() ItemID
	Pos() music.Position
	Kind() Kind
	isItem()
}

// Section names a run of bars sharing one time signature.
// A Section is always anchored at beat 0 of its bar.
type Section struct {
	id            ItemID
	Bar           int
	Name          string
	TimeSignature music.TimeSignature
}

// NewSection returns an unstored Section snapshot.
func NewSection(name string, ts music.TimeSignature, bar int) Section {
	return Section{Bar: bar, Name: name, TimeSignature: ts}
}

func (s Section) ID() ItemID          { return s.id }
func (s Section) Pos() music.Position { return music.BarStart(s.Bar) }
func (Section) Kind() Kind            { return KindSection }
func (Section) isItem()               {}

// WithID returns s carrying id. Stores ignore IDs already in use.
func (s Section) WithID(id ItemID) Section {
	s.id = id
	return s
}

func (s Section) String() string {
	return fmt.Sprintf("section %q %s @%d", s.Name, s.TimeSignature, s.Bar)
}

// OrdinaryItem is any positioned entry other than a Section.
type OrdinaryItem struct {
	id       ItemID
	Position music.Position
	Payload  Payload
}

// NewItem returns an unstored OrdinaryItem snapshot.
func NewItem(pos music.Position, p Payload) OrdinaryItem {
	return OrdinaryItem{Position: pos, Payload: p}
}

// NewChord is shorthand for a chord symbol item.
func NewChord(name string, bar int, beat music.Beat) OrdinaryItem {
	return NewItem(music.At(bar, beat), ChordSymbol{Name: name})
}

func (it OrdinaryItem) ID() ItemID          { return it.id }
func (it OrdinaryItem) Pos() music.Position { return it.Position }
func (OrdinaryItem) isItem()                {}

// WithID returns it carrying id. Stores ignore IDs already in use.
func (it OrdinaryItem) WithID(id ItemID) OrdinaryItem {
	it.id = id
	return it
}

// Kind returns the payload kind.
func (it OrdinaryItem) Kind() Kind {
	if it.Payload == nil {
		return ""
	}
	return it.Payload.Kind()
}

// Equal reports whether both position and payload are equal. IDs are ignored.
func (it OrdinaryItem) Equal(o OrdinaryItem) bool {
	return it.Position == o.Position && it.Payload == o.Payload
}

func (it OrdinaryItem) String() string {
	return fmt.Sprintf("%s %q @%s", it.Kind(), payloadText(it.Payload), it.Position)
}

// Payload is the opaque data carried by an ordinary item.
// Implementations must have comparable dynamic types: equality is ==.
type Payload interface {
	Kind() Kind
	String() string
}

// ChordSymbol is a chord symbol such as "Cm7" or "F#7b9".
type ChordSymbol struct {
	Name string
}

func (ChordSymbol) Kind() Kind       { return KindChord }
func (c ChordSymbol) String() string { return c.Name }

// Annotation is free text attached to a position.
type Annotation struct {
	Text string
}

func (Annotation) Kind() Kind       { return KindAnnotation }
func (a Annotation) String() string { return a.Text }

// ParsePayload rebuilds a built-in payload from its kind and text.
func ParsePayload(kind Kind, text string) (Payload, error) {
	switch kind {
	case KindChord:
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: empty chord symbol", ErrInvalidArgument)
		}
		return ChordSymbol{Name: text}, nil
	case KindAnnotation:
		return Annotation{Text: text}, nil
	}
	return nil, fmt.Errorf("%w: unknown payload kind %q", ErrInvalidArgument, kind)
}

func checkPayload(p Payload) error {
	if p == nil {
		return fmt.Errorf("%w: nil payload", ErrInvalidArgument)
	}
	if !reflect.TypeOf(p).Comparable() {
		return fmt.Errorf("%w: payload type %T is not comparable", ErrInvalidArgument, p)
	}
	if p.Kind() == KindSection || p.Kind() == "" {
		return fmt.Errorf("%w: payload kind %q", ErrInvalidArgument, p.Kind())
	}
	return nil
}

func payloadText(p Payload) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// compareItems is the total order of a Store.
func compareItems(a, b Item) int {
	if c := a.Pos().Compare(b.Pos()); c != 0 {
		return c
	}
	as, bs := a.Kind() == KindSection, b.Kind() == KindSection
	if as != bs {
		if as {
			return -1
		}
		return 1
	}
	if !as {
		if c := strings.Compare(string(a.Kind()), string(b.Kind())); c != 0 {
			return c
		}
		ap, bp := a.(OrdinaryItem).Payload, b.(OrdinaryItem).Payload
		if c := strings.Compare(payloadText(ap), payloadText(bp)); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID(), b.ID())
}

// withID returns it carrying id.
func withID(it Item, id ItemID) Item {
	switch v := it.(type) {
	case Section:
		v.id = id
		return v
	case OrdinaryItem:
		v.id = id
		return v
	}
	panic(fmt.Sprintf("leadsheet: unknown item type %T", it))
}

// withBar returns it moved to bar, beat unchanged.
func withBar(it Item, bar int) Item {
	switch v := it.(type) {
	case Section:
		v.Bar = bar
		return v
	case OrdinaryItem:
		v.Position.Bar = bar
		return v
	}
	panic(fmt.Sprintf("leadsheet: unknown item type %T", it))
}

func cleanName(name string) string { return config.CleanName(name) }

func foldName(name string) string { return config.FoldName(name) }
