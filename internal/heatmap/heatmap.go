// Package heatmap holds the placeholder heatmap grid and its color scale.
// The values are fixed; nothing is computed from scan data.
package heatmap

// Rows and Cols are the grid dimensions.
const (
	Rows = 6
	Cols = 11
)

// Grid is a fixed heatmap of intensities.
type Grid [Rows][Cols]int

// Placeholder is the static grid the heatmap screen shows.
var Placeholder = Grid{
	{0, 0, 0, 1, 1, 2, 2, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 3, 3, 1, 0, 0, 0},
	{0, 0, 0, 0, 1, 4, 4, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 3, 3, 1, 0, 0, 0},
	{0, 0, 0, 0, 1, 2, 2, 1, 0, 0, 0},
	{0, 0, 0, 0, 0, 1, 1, 1, 0, 0, 0},
}

// Palette runs from the coolest to the hottest intensity.
var Palette = []string{"#ffe5e5", "#ff9999", "#ff4d4d", "#e60000", "#990000"}

// Caption labels the rendered grid.
const Caption = "Placeholder Heatmap"

// ColorFor maps an intensity to a palette color. Values outside the palette
// are clamped to its ends.
func ColorFor(v int) string {
	return Palette[min(max(v, 0), len(Palette)-1)]
}

// Max returns the highest intensity in g.
func (g Grid) Max() int {
	m := 0
	for _, row := range g {
		for _, v := range row {
			m = max(m, v)
		}
	}
	return m
}
