package leadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjazzboss/JJazzLab-sub029/internal/config"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

func section(id ItemID, name string, ts music.TimeSignature, bar int) Section {
	s := NewSection(name, ts, bar)
	s.id = id
	return s
}

func chord(id ItemID, name string, bar int, beat string) OrdinaryItem {
	c := NewChord(name, bar, music.MustParseBeat(beat))
	c.id = id
	return c
}

func TestCheckInvariants_Valid(t *testing.T) {
	items := []Item{
		section(1, "A", music.FourFour, 0),
		chord(3, "C", 0, "0"),
		chord(4, "C", 1, "3.5"),
		section(2, "B", music.ThreeFour, 2),
		chord(5, "D", 2, "2.5"),
	}
	assert.NoError(t, checkInvariants(items, 4))
}

func TestCheckInvariants_Violations(t *testing.T) {
	tests := []struct {
		name      string
		items     []Item
		size      int
		invariant string
	}{
		{"empty", nil, 4, "bar-0 section"},
		{"no bar-0 section", []Item{chord(2, "C", 0, "0")}, 4, "bar-0 section"},
		{"zero size", []Item{section(1, "A", music.FourFour, 0)}, 0, "size"},
		{"duplicate id", []Item{
			section(1, "A", music.FourFour, 0),
			chord(1, "C", 1, "0"),
		}, 4, "identity"},
		{"bar out of range", []Item{
			section(1, "A", music.FourFour, 0),
			chord(2, "C", 4, "0"),
		}, 4, "bar range"},
		{"out of order", []Item{
			section(1, "A", music.FourFour, 0),
			chord(2, "C", 2, "0"),
			chord(3, "C", 1, "0"),
		}, 4, "order"},
		{"two sections on a bar", []Item{
			section(1, "A", music.FourFour, 0),
			section(2, "B", music.FourFour, 0),
		}, 4, "one section per bar"},
		{"duplicate name", []Item{
			section(1, "A", music.FourFour, 0),
			section(2, "a", music.FourFour, 1),
		}, 4, "unique section name"},
		{"beat not normalized", []Item{
			section(1, "A", music.ThreeFour, 0),
			chord(2, "C", 1, "3"),
		}, 4, "beat normalization"},
		{"equal items", []Item{
			section(1, "A", music.FourFour, 0),
			chord(2, "C", 1, "1"),
			chord(3, "C", 1, "1"),
		}, 4, "no duplicates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkInvariants(tt.items, tt.size)
			require.Error(t, err)
			var ie *InvariantError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.invariant, ie.Invariant)
		})
	}
}

func TestCompareItems(t *testing.T) {
	sec := section(9, "B", music.FourFour, 1)
	atBarStart := chord(2, "C", 1, "0")
	ann := OrdinaryItem{id: 3, Position: music.BarStart(1), Payload: Annotation{Text: "fine"}}
	later := chord(4, "A", 1, "1/2")

	assert.Negative(t, compareItems(sec, atBarStart), "section sorts first at its bar")
	assert.Negative(t, compareItems(ann, atBarStart), "kind breaks position ties")
	assert.Negative(t, compareItems(atBarStart, later))
	assert.Negative(t, compareItems(chord(2, "C", 1, "0"), chord(3, "C", 1, "0")), "id is the last tie-break")
	assert.Zero(t, compareItems(atBarStart, atBarStart))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, foldName("Verse"), foldName("  VERSE "))
	// NFC: precomposed and combining forms fold together.
	assert.Equal(t, foldName("Caf\u00e9"), foldName("Cafe\u0301"))
}

func TestRules_ReservedNamesFoldLikeConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ReservedNames = []string{"stra\u00dfe"}
	cfg.DefaultSection = "STRASSE"
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

	_, err := NewFactory(WithReservedNames("stra\u00dfe")).rules().checkName("STRASSE")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRules_CheckName(t *testing.T) {
	r := NewFactory(WithReservedNames("END", "Coda")).rules()

	clean, err := r.checkName("  Bridge ")
	require.NoError(t, err)
	assert.Equal(t, "Bridge", clean)

	for _, bad := range []string{"", "   ", "end", "CODA", "a\tb"} {
		_, err := r.checkName(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, bad)
	}
}
