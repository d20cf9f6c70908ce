package bluetooth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotConnected     = errors.New("bluetooth: not connected")
	ErrUnknownDevice    = errors.New("bluetooth: unknown device")
	ErrUnknownAttribute = errors.New("bluetooth: unknown service or characteristic")
)

// Capability is a bit set of GATT characteristic properties.
type Capability uint8

const (
	CapRead Capability = 1 << iota
	CapWriteWithResponse
	CapWriteWithoutResponse
	CapNotify
	CapNotifying
)

// Has reports whether every bit of f is set.
func (c Capability) Has(f Capability) bool { return c&f == f }

// Writable reports either write mode.
func (c Capability) Writable() bool {
	return c&(CapWriteWithResponse|CapWriteWithoutResponse) != 0
}

// Notifiable reports whether the characteristic can push values, or already is.
func (c Capability) Notifiable() bool {
	return c&(CapNotify|CapNotifying) != 0
}

func (c Capability) String() string {
	var parts []string
	if c.Has(CapRead) {
		parts = append(parts, "read")
	}
	if c.Has(CapWriteWithResponse) {
		parts = append(parts, "write")
	}
	if c.Has(CapWriteWithoutResponse) {
		parts = append(parts, "write-nr")
	}
	if c.Has(CapNotify) {
		parts = append(parts, "notify")
	}
	if c.Has(CapNotifying) {
		parts = append(parts, "notifying")
	}
	return strings.Join(parts, ",")
}

// Device is one advertising peripheral seen during a scan.
type Device struct {
	ID           string // Address, unique per peripheral
	Name         string
	RSSI         int16
	Manufacturer string // From advertised manufacturer data, if known
}

// DisplayName returns the device name or "[unnamed]" if empty.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "[unnamed]"
	}
	return d.Name
}

// Characteristic is a discovered GATT characteristic.
type Characteristic struct {
	UUID        string
	ServiceUUID string
	Caps        Capability
}

// Key identifies the characteristic across services.
func (c Characteristic) Key() string { return c.ServiceUUID + "/" + c.UUID }

// Service is a discovered GATT service with its characteristics in
// enumeration order.
type Service struct {
	UUID            string
	Characteristics []Characteristic
}

// Permission is a runtime capability the central needs.
type Permission string

const (
	PermissionScan     Permission = "scan"
	PermissionConnect  Permission = "connect"
	PermissionLocation Permission = "location"
)

// Permissions is the fixed set requested at startup.
var Permissions = []Permission{PermissionScan, PermissionConnect, PermissionLocation}

// PermissionReport maps each requested permission to whether it was granted.
type PermissionReport map[Permission]bool

// Denied lists the permissions that were not granted, in request order.
func (r PermissionReport) Denied() []Permission {
	var out []Permission
	for _, p := range Permissions {
		if !r[p] {
			out = append(out, p)
		}
	}
	return out
}

// ScanHandler receives each advertisement, or a scan error.
type ScanHandler func(dev Device, err error)

// NotifyHandler receives each notified value, or a per-notification error.
type NotifyHandler func(value []byte, err error)

// Central is the host side of the BLE binding.
type Central interface {
	RequestPermissions(ctx context.Context) PermissionReport
	// Scan starts an unfiltered scan and returns immediately. The handler
	// runs on a binding goroutine until StopScan.
	Scan(handler ScanHandler) error
	StopScan() error
	Connect(ctx context.Context, deviceID string) (Link, error)
	Close() error
}

// Link is a connection to one peripheral.
type Link interface {
	Device() Device
	// Discover enumerates every service and its characteristics.
	Discover(ctx context.Context) ([]Service, error)
	// Write performs a write-with-response of a base64 encoded payload.
	Write(ctx context.Context, serviceUUID, charUUID, payload string) error
	Subscribe(serviceUUID, charUUID string, handler NotifyHandler) error
	Disconnect() error
}
