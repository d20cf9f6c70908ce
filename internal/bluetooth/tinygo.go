package bluetooth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tinybluetooth "tinygo.org/x/bluetooth"
)

type seenAddress struct {
	addr tinybluetooth.Address
	name string
}

// TinyGoCentral drives a real adapter through tinygo.org/x/bluetooth.
type TinyGoCentral struct {
	adapter *tinybluetooth.Adapter
	name    string
	log     *slog.Logger

	mu       sync.Mutex
	enabled  bool
	scanning bool
	seen     map[string]seenAddress
}

// NewTinyGoCentral creates a central for the given adapter (e.g., "hci0").
func NewTinyGoCentral(adapterName string, logger *slog.Logger) *TinyGoCentral {
	return &TinyGoCentral{
		adapter: tinybluetooth.NewAdapter(adapterName),
		name:    adapterName,
		log:     logger.With("adapter", adapterName),
		seen:    make(map[string]seenAddress),
	}
}

func (c *TinyGoCentral) enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return nil
	}
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("enable BLE adapter %s: %w (try running with sudo or setcap cap_net_admin+ep)", c.name, err)
	}
	c.enabled = true
	return nil
}

// RequestPermissions enables the adapter. BlueZ gates scan and connect on the
// same D-Bus access, and has no location permission.
func (c *TinyGoCentral) RequestPermissions(ctx context.Context) PermissionReport {
	err := c.enable()
	if err != nil {
		c.log.Debug("adapter enable failed", "err", err)
	}
	return PermissionReport{
		PermissionScan:     err == nil,
		PermissionConnect:  err == nil,
		PermissionLocation: true,
	}
}

// Scan starts an unfiltered scan in a goroutine.
func (c *TinyGoCentral) Scan(handler ScanHandler) error {
	if err := c.enable(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.scanning {
		c.mu.Unlock()
		return errors.New("bluetooth: scan already running")
	}
	c.scanning = true
	c.mu.Unlock()

	go func() {
		// adapter.Scan blocks until StopScan() or error.
		err := c.adapter.Scan(func(_ *tinybluetooth.Adapter, r tinybluetooth.ScanResult) {
			dev := Device{
				ID:           r.Address.String(),
				Name:         r.LocalName(),
				RSSI:         r.RSSI,
				Manufacturer: manufacturerName(r.ManufacturerData()),
			}
			c.mu.Lock()
			c.seen[dev.ID] = seenAddress{addr: r.Address, name: dev.Name}
			c.mu.Unlock()
			handler(dev, nil)
		})

		c.mu.Lock()
		c.scanning = false
		c.mu.Unlock()

		if err != nil {
			handler(Device{}, fmt.Errorf("ble scan: %w", err))
		}
	}()
	return nil
}

// StopScan halts a running scan. It is a no-op when idle.
func (c *TinyGoCentral) StopScan() error {
	c.mu.Lock()
	scanning := c.scanning
	c.mu.Unlock()

	if !scanning {
		return nil
	}
	if err := c.adapter.StopScan(); err != nil {
		return fmt.Errorf("stop scan: %w", err)
	}
	return nil
}

// Connect opens a connection to a device seen by a previous scan.
func (c *TinyGoCentral) Connect(ctx context.Context, deviceID string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	seen, ok := c.seen[deviceID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}

	dev, err := c.adapter.Connect(seen.addr, tinybluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", deviceID, err)
	}

	return &tinyLink{
		dev:  dev,
		info: Device{ID: deviceID, Name: seen.name},
		log:  c.log.With("device", deviceID),
	}, nil
}

// Close stops any running scan. tinygo keeps the adapter for the process
// lifetime, so there is nothing else to release.
func (c *TinyGoCentral) Close() error {
	return c.StopScan()
}

type tinyLink struct {
	dev  tinybluetooth.Device
	info Device
	log  *slog.Logger

	mu    sync.Mutex
	attrs map[string]attribute
}

// charProps is what the platform reports about a characteristic beyond
// tinygo's own handle.
type charProps struct {
	caps Capability
	// path is the BlueZ object path. Empty elsewhere.
	path string
}

type attribute struct {
	char tinybluetooth.DeviceCharacteristic
	charProps
}

func (l *tinyLink) Device() Device { return l.info }

func (l *tinyLink) Discover(ctx context.Context) ([]Service, error) {
	svcs, err := l.dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}

	props, err := characteristicProps(l.info.ID)
	if err != nil {
		l.log.Warn("characteristic properties unavailable", "err", err)
	}

	attrs := make(map[string]attribute)
	out := make([]Service, 0, len(svcs))
	for i := range svcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		svcUUID := svcs[i].UUID().String()
		dcs, err := svcs[i].DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("discover characteristics of %s: %w", svcUUID, err)
		}

		svc := Service{UUID: svcUUID}
		for j := range dcs {
			ch := Characteristic{
				UUID:        dcs[j].UUID().String(),
				ServiceUUID: svcUUID,
			}
			p := props[ch.Key()]
			if p.caps == 0 {
				p.caps = localCaps(&dcs[j])
			}
			ch.Caps = p.caps
			attrs[ch.Key()] = attribute{char: dcs[j], charProps: p}
			svc.Characteristics = append(svc.Characteristics, ch)
		}
		out = append(out, svc)
	}

	l.mu.Lock()
	l.attrs = attrs
	l.mu.Unlock()
	return out, nil
}

func (l *tinyLink) lookup(serviceUUID, charUUID string) (attribute, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.attrs[serviceUUID+"/"+charUUID]
	if !ok {
		return attribute{}, fmt.Errorf("%w: %s/%s", ErrUnknownAttribute, serviceUUID, charUUID)
	}
	return a, nil
}

func (l *tinyLink) Write(ctx context.Context, serviceUUID, charUUID, payload string) error {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	a, err := l.lookup(serviceUUID, charUUID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeRequest(ctx, a, data); err != nil {
		return fmt.Errorf("write %s: %w", charUUID, err)
	}
	return nil
}

func (l *tinyLink) Subscribe(serviceUUID, charUUID string, handler NotifyHandler) error {
	a, err := l.lookup(serviceUUID, charUUID)
	if err != nil {
		return err
	}
	err = a.char.EnableNotifications(func(buf []byte) {
		handler(append([]byte(nil), buf...), nil)
	})
	if err != nil {
		return fmt.Errorf("enable notifications on %s: %w", charUUID, err)
	}
	return nil
}

func (l *tinyLink) Disconnect() error {
	if err := l.dev.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", l.info.ID, err)
	}
	return nil
}

// GATT characteristic property bits, as carried in the declaration.
const (
	propRead                 = 0x02
	propWriteWithoutResponse = 0x04
	propWrite                = 0x08
	propNotify               = 0x10
	propIndicate             = 0x20
)

// capsFromProperties maps a raw GATT property byte to capabilities.
// Indications are treated like notifications.
func capsFromProperties(p uint32) Capability {
	var c Capability
	if p&propRead != 0 {
		c |= CapRead
	}
	if p&propWriteWithoutResponse != 0 {
		c |= CapWriteWithoutResponse
	}
	if p&propWrite != 0 {
		c |= CapWriteWithResponse
	}
	if p&(propNotify|propIndicate) != 0 {
		c |= CapNotify
	}
	return c
}
