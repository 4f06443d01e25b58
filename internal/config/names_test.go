package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldName(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Verse", "  VERSE ", true},
		{"stra\u00dfe", "STRASSE", true},
		{"Cafe\u0301", "CAF\u00c9", true},
		{"A", "B", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.same, FoldName(tt.a) == FoldName(tt.b))
		})
	}
	assert.Equal(t, "Caf\u00e9", CleanName(" Cafe\u0301 "))
}

func TestValidate_ReservedDefaultSectionFolds(t *testing.T) {
	cfg := Default()
	cfg.ReservedNames = []string{"stra\u00dfe"}
	cfg.DefaultSection = "STRASSE"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.DefaultSection = "Verse"
	assert.NoError(t, cfg.Validate())
}
