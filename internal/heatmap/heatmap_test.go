package heatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForClamps(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{-3, "#ffe5e5"},
		{0, "#ffe5e5"},
		{1, "#ff9999"},
		{2, "#ff4d4d"},
		{3, "#e60000"},
		{4, "#990000"},
		{5, "#990000"},
		{100, "#990000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorFor(tt.in), "value %d", tt.in)
	}
}

func TestPlaceholderFitsPalette(t *testing.T) {
	assert.Equal(t, 4, Placeholder.Max())
	for _, row := range Placeholder {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, len(Palette))
		}
	}
	// The hot spot sits in the centre columns of the third row.
	assert.Equal(t, 4, Placeholder[2][5])
	assert.Equal(t, 4, Placeholder[2][6])
}
