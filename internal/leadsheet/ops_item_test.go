package leadsheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
	"github.com/jjazzboss/JJazzLab-sub029/internal/testutil"
)

func TestAddItem_RejectsDuplicate(t *testing.T) {
	s := testutil.NewStore(t, 8)
	x := leadsheet.NewChord("Cm7", 2, b("1"))

	added, ok, err := s.AddItem(x)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, added.ID())

	_, ok, err = s.AddItem(x)
	require.NoError(t, err)
	assert.False(t, ok)

	at := s.ItemsInBars(2, 2, leadsheet.OrdinaryOnly)
	require.Len(t, at, 1)
	assert.Equal(t, added, at[0])
}

func TestAddItem_NormalizesBeat(t *testing.T) {
	s, err := testutil.NewFactory().New("A", music.ThreeFour, 4)
	require.NoError(t, err)

	added, ok, err := s.AddItem(leadsheet.NewChord("C", 1, b("3.5")))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, music.At(1, b("2.99")), added.Position)

	// The clamped twin is a duplicate.
	_, ok, err = s.AddItem(leadsheet.NewChord("C", 1, b("5")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddItem_Invalid(t *testing.T) {
	s := testutil.NewStore(t, 4)
	tests := []struct {
		name string
		item leadsheet.OrdinaryItem
	}{
		{"bar past end", leadsheet.NewChord("C", 4, b("0"))},
		{"negative bar", leadsheet.NewChord("C", -1, b("0"))},
		{"negative beat", leadsheet.NewChord("C", 1, b("-1"))},
		{"nil payload", leadsheet.NewItem(music.BarStart(1), nil)},
		{"non comparable payload", leadsheet.NewItem(music.BarStart(1), listPayload{"C", "G"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := s.AddItem(tt.item)
			assert.False(t, ok)
			assert.ErrorIs(t, err, leadsheet.ErrInvalidArgument)
		})
	}
	assert.Equal(t, 1, s.Len())
}

type listPayload []string

func (listPayload) Kind() leadsheet.Kind { return "list" }
func (l listPayload) String() string     { return "list" }

func TestAddItem_KeepsFreeID(t *testing.T) {
	s := testutil.NewStore(t, 8)
	first, _, err := s.AddItem(leadsheet.NewChord("C", 1, b("0")))
	require.NoError(t, err)
	_, err = s.RemoveItem(first)
	require.NoError(t, err)

	again, ok, err := s.AddItem(first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID(), again.ID())

	// An ID in use is replaced by a fresh one.
	moved := first
	moved.Position = music.BarStart(3)
	other, ok, err := s.AddItem(moved)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first.ID(), other.ID())
}

func TestRemoveItem(t *testing.T) {
	s := testutil.NewStore(t, 8)
	c, _, err := s.AddItem(leadsheet.NewChord("C", 1, b("0")))
	require.NoError(t, err)

	ok, err := s.RemoveItem(c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, s.Contains(c))

	ok, err = s.RemoveItem(c)
	require.NoError(t, err)
	assert.False(t, ok, "already removed")

	// A snapshot without ID is resolved by equality.
	_, _, err = s.AddItem(leadsheet.NewChord("D", 2, b("1")))
	require.NoError(t, err)
	ok, err = s.RemoveItem(leadsheet.NewChord("D", 2, b("1")))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestMoveItem(t *testing.T) {
	s := testutil.NewStore(t, 8)
	_, _, err := s.AddSection(leadsheet.NewSection("B", music.ThreeFour, 4))
	require.NoError(t, err)
	c, _, err := s.AddItem(leadsheet.NewChord("C", 1, b("3.5")))
	require.NoError(t, err)
	_, _, err = s.AddItem(leadsheet.NewChord("C", 5, b("2.99")))
	require.NoError(t, err)

	// Onto an equal item after normalization.
	ok, err := s.MoveItem(c, music.At(5, b("3.5")))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MoveItem(c, music.At(4, b("3.5")))
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := s.Item(c.ID())
	require.True(t, found)
	assert.Equal(t, music.At(4, b("2.99")), got.Pos())

	ok, err = s.MoveItem(got.(leadsheet.OrdinaryItem), music.At(4, b("2.99")))
	require.NoError(t, err)
	assert.False(t, ok, "already there")

	_, err = s.MoveItem(c, music.BarStart(8))
	assert.ErrorIs(t, err, leadsheet.ErrInvalidArgument)
}

func TestChangeItem(t *testing.T) {
	s := testutil.NewStore(t, 8)
	c, _, err := s.AddItem(leadsheet.NewChord("C", 1, b("0")))
	require.NoError(t, err)
	_, _, err = s.AddItem(leadsheet.NewChord("D", 1, b("0")))
	require.NoError(t, err)

	ok, err := s.ChangeItem(c, leadsheet.ChordSymbol{Name: "D"})
	require.NoError(t, err)
	assert.False(t, ok, "would duplicate D")

	ok, err = s.ChangeItem(c, leadsheet.ChordSymbol{Name: "C"})
	require.NoError(t, err)
	assert.False(t, ok, "unchanged")

	ok, err = s.ChangeItem(c, leadsheet.ChordSymbol{Name: "E7"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := s.Item(c.ID())
	require.True(t, found)
	assert.Equal(t, leadsheet.ChordSymbol{Name: "E7"}, got.(leadsheet.OrdinaryItem).Payload)
	assert.Equal(t, c.Position, got.Pos())

	_, err = s.ChangeItem(c, nil)
	assert.ErrorIs(t, err, leadsheet.ErrInvalidArgument)
}

func TestParsePayload(t *testing.T) {
	p, err := leadsheet.ParsePayload(leadsheet.KindChord, "F#7b9")
	require.NoError(t, err)
	assert.Equal(t, leadsheet.ChordSymbol{Name: "F#7b9"}, p)

	p, err = leadsheet.ParsePayload(leadsheet.KindAnnotation, "D.C. al fine")
	require.NoError(t, err)
	assert.Equal(t, leadsheet.Annotation{Text: "D.C. al fine"}, p)

	_, err = leadsheet.ParsePayload(leadsheet.KindChord, " ")
	assert.ErrorIs(t, err, leadsheet.ErrInvalidArgument)
	_, err = leadsheet.ParsePayload(leadsheet.KindSection, "A")
	assert.ErrorIs(t, err, leadsheet.ErrInvalidArgument)
}
