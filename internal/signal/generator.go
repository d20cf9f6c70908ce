package signal

import "math/rand"

// Placeholder seeds the chart before the first simulated sample.
var Placeholder = []float64{-70, -65, -68, -72, -66, -63, -67, -69}

// Seeded returns a buffer of Capacity holding Placeholder.
func Seeded() *Buffer {
	b := NewBuffer(Capacity)
	b.Reset(Placeholder...)
	return b
}

// Generator simulates RSSI readings in dBm. There is no real sampling behind it.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from src, or from a time seeded
// source when src is nil.
func NewGenerator(src rand.Source) *Generator {
	g := &Generator{}
	if src != nil {
		g.rng = rand.New(src)
	}
	return g
}

// Next returns a sample in [-69, -60].
func (g *Generator) Next() float64 {
	var n int
	if g.rng != nil {
		n = g.rng.Intn(10)
	} else {
		n = rand.Intn(10)
	}
	return float64(-60 - n)
}
