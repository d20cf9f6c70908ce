package signal

import (
	"math"

	"ble-link.klederson.com/internal/config"
)

// Capacity is the number of samples the chart keeps.
const Capacity = config.ChartCapacity

// Buffer is a circular buffer of finite signal samples.
type Buffer struct {
	buf   []float64
	pos   int
	count int
}

// NewBuffer creates a new circular buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Buffer{
		buf: make([]float64, capacity),
	}
}

// Push adds a value, evicting the oldest when full. NaN and infinities are
// dropped and Push reports false for them.
func (b *Buffer) Push(val float64) bool {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return false
	}
	b.buf[b.pos] = val
	b.pos = (b.pos + 1) % len(b.buf)
	if b.count < len(b.buf) {
		b.count++
	}
	return true
}

// Values returns all stored values in chronological order.
func (b *Buffer) Values() []float64 {
	if b.count == 0 {
		return nil
	}
	result := make([]float64, b.count)
	if b.count < len(b.buf) {
		copy(result, b.buf[:b.count])
	} else {
		n := copy(result, b.buf[b.pos:])
		copy(result[n:], b.buf[:b.pos])
	}
	return result
}

// Last returns the most recent value, or 0 if empty.
func (b *Buffer) Last() float64 {
	if b.count == 0 {
		return 0
	}
	idx := (b.pos - 1 + len(b.buf)) % len(b.buf)
	return b.buf[idx]
}

// Len returns the number of stored values.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Reset empties the buffer and pushes seed.
func (b *Buffer) Reset(seed ...float64) {
	b.pos = 0
	b.count = 0
	for _, v := range seed {
		b.Push(v)
	}
}
