package session

import (
	"testing"

	"ble-link.klederson.com/internal/bluetooth"
	"github.com/stretchr/testify/assert"
)

func TestDeviceListAdd(t *testing.T) {
	l := NewDeviceList()
	assert.True(t, l.Add(bluetooth.Device{ID: "A", Name: "first"}))
	assert.False(t, l.Add(bluetooth.Device{ID: "A", Name: "renamed"}))
	assert.False(t, l.Add(bluetooth.Device{}))
	assert.True(t, l.Add(bluetooth.Device{ID: "B"}))

	assert.Equal(t, 2, l.Len())
	devs := l.Snapshot()
	assert.Equal(t, "first", devs[0].Name)

	// Snapshots do not alias the list.
	devs[0].Name = "changed"
	assert.Equal(t, "first", l.Snapshot()[0].Name)

	l.Reset()
	assert.Zero(t, l.Len())
	assert.True(t, l.Add(bluetooth.Device{ID: "A"}))
}

func TestVisible(t *testing.T) {
	devs := []bluetooth.Device{{ID: "A", Name: "Polar H10"}, {ID: "B"}, {ID: "C", Name: "Tile"}}

	assert.Equal(t, devs, Visible(devs, true))
	assert.Equal(t, []bluetooth.Device{devs[0], devs[2]}, Visible(devs, false))
	assert.Empty(t, Visible(nil, false))
}
