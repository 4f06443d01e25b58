package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
	"github.com/jjazzboss/JJazzLab-sub029/internal/testutil"
)

func TestEncodeEvent_Body(t *testing.T) {
	chord := leadsheet.NewChord("Cm7", 1, testutil.Beat("5/2")).WithID(7)

	typ, body, err := encodeEvent(leadsheet.ItemAdded{Item: chord})
	require.NoError(t, err)
	assert.Equal(t, typeItemAdded, typ)
	assert.Equal(t, `{"item":{"bar":1,"beat":"5/2","id":7,"kind":"chord","text":"Cm7"}}`, string(body))

	sec := leadsheet.NewSection("Bridge", music.ThreeFour, 4).WithID(3)
	typ, body, err = encodeEvent(leadsheet.SectionMoved{Old: sec, New: leadsheet.NewSection("Bridge", music.ThreeFour, 6).WithID(3)})
	require.NoError(t, err)
	assert.Equal(t, typeSectionMoved, typ)
	assert.Equal(t,
		`{"new":{"bar":6,"id":3,"kind":"section","name":"Bridge","ts":"3/4"},"old":{"bar":4,"id":3,"kind":"section","name":"Bridge","ts":"3/4"}}`,
		string(body))
}

func TestDecodeEvent_RoundTrip(t *testing.T) {
	chord := leadsheet.NewChord("Cm7", 1, testutil.Beat("5/2")).WithID(7)
	moved := leadsheet.NewChord("Cm7", 2, music.Beats(0)).WithID(7)
	note := leadsheet.NewItem(music.At(0, music.Beats(1)), leadsheet.Annotation{Text: "fine"}).WithID(9)
	sec := leadsheet.NewSection("A", music.FourFour, 0).WithID(1)
	renamed := leadsheet.NewSection("Intro", music.SixEight, 0).WithID(1)

	events := []leadsheet.Event{
		leadsheet.ItemAdded{Item: chord},
		leadsheet.ItemRemoved{Item: note},
		leadsheet.ItemChanged{Old: sec, New: renamed},
		leadsheet.ItemChanged{Old: chord, New: leadsheet.NewChord("C7", 1, testutil.Beat("5/2")).WithID(7)},
		leadsheet.ItemMoved{Old: chord, New: moved},
		leadsheet.SectionMoved{Old: leadsheet.NewSection("B", music.FourFour, 2).WithID(4), New: leadsheet.NewSection("B", music.FourFour, 5).WithID(4)},
		leadsheet.ItemBarShifted{Items: []leadsheet.Item{chord, note}, Delta: -1},
		leadsheet.SizeChanged{Old: 8, New: 12},
	}
	for _, ev := range events {
		t.Run(leadsheet.Describe(ev), func(t *testing.T) {
			typ, body, err := encodeEvent(ev)
			require.NoError(t, err)
			got, err := decodeEvent(typ, body, leadsheet.ParsePayload)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		body string
	}{
		{"unknown type", "item_teleported", `{}`},
		{"bad json", typeItemAdded, `{`},
		{"missing item", typeItemAdded, `{}`},
		{"bad beat", typeItemAdded, `{"item":{"id":1,"kind":"chord","bar":0,"beat":"x","text":"C"}}`},
		{"bad time signature", typeItemRemoved, `{"item":{"id":1,"kind":"section","bar":0,"name":"A","ts":"4/3"}}`},
		{"unknown kind", typeItemAdded, `{"item":{"id":1,"kind":"lyric","bar":0,"beat":"0","text":"la"}}`},
		{"move of a section", typeItemMoved, `{"old":{"id":1,"kind":"section","bar":0,"name":"A","ts":"4/4"},"new":{"id":1,"kind":"section","bar":1,"name":"A","ts":"4/4"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent(tt.typ, []byte(tt.body), leadsheet.ParsePayload)
			assert.Error(t, err)
		})
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := testutil.NewStore(t, 4)
	_, _, err := s.AddItem(leadsheet.NewChord("F#m7b5", 3, testutil.Beat("7/2")))
	require.NoError(t, err)

	data, err := encodeSnapshot(s)
	require.NoError(t, err)
	size, items, err := decodeSnapshot(data, leadsheet.ParsePayload)
	require.NoError(t, err)
	assert.Equal(t, 4, size)
	assert.Equal(t, s.Items(leadsheet.AllItems), items)
}
