package session

import (
	"slices"

	"ble-link.klederson.com/internal/bluetooth"
)

// DeviceList holds one scan session's devices in first-seen order,
// deduplicated by id. It is not safe for concurrent use; the Controller
// guards it.
type DeviceList struct {
	seen    map[string]struct{}
	devices []bluetooth.Device
}

// NewDeviceList creates an empty list.
func NewDeviceList() *DeviceList {
	return &DeviceList{seen: make(map[string]struct{})}
}

// Add appends dev if its id is unseen and reports whether it did.
func (l *DeviceList) Add(dev bluetooth.Device) bool {
	if dev.ID == "" {
		return false
	}
	if _, ok := l.seen[dev.ID]; ok {
		return false
	}
	l.seen[dev.ID] = struct{}{}
	l.devices = append(l.devices, dev)
	return true
}

// Reset empties the list and the dedup set.
func (l *DeviceList) Reset() {
	clear(l.seen)
	l.devices = nil
}

// Snapshot returns a copy of the devices.
func (l *DeviceList) Snapshot() []bluetooth.Device {
	return slices.Clone(l.devices)
}

// Len returns the number of distinct devices.
func (l *DeviceList) Len() int {
	return len(l.devices)
}

// Visible filters out unnamed devices unless showUnnamed is set.
func Visible(devices []bluetooth.Device, showUnnamed bool) []bluetooth.Device {
	if showUnnamed {
		return devices
	}
	out := make([]bluetooth.Device, 0, len(devices))
	for _, d := range devices {
		if d.Name != "" {
			out = append(out, d)
		}
	}
	return out
}
