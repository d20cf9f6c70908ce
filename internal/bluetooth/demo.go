package bluetooth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"
)

// GATT attributes served by the demo peripherals.
const (
	UUIDDeviceInfo   = "0000180a-0000-1000-8000-00805f9b34fb"
	UUIDManufacturer = "00002a29-0000-1000-8000-00805f9b34fb"
	UUIDBattery      = "0000180f-0000-1000-8000-00805f9b34fb"
	UUIDBatteryLevel = "00002a19-0000-1000-8000-00805f9b34fb"
	UUIDHeartRate    = "0000180d-0000-1000-8000-00805f9b34fb"
	UUIDHeartRateMsr = "00002a37-0000-1000-8000-00805f9b34fb"
	UUIDUART         = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	UUIDUARTRX       = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	UUIDUARTTX       = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
	UUIDVendor       = "e49a25f8-f69a-11e8-8eb2-f2801f1b9fd1"
	UUIDVendorData   = "e49a28e1-f69a-11e8-8eb2-f2801f1b9fd1"
)

// DemoPeripheral is one scripted peripheral.
type DemoPeripheral struct {
	Device   Device
	Services []Service
	// EchoTo is the Key of a characteristic that notifies every write back.
	EchoTo      string
	ConnectErr  error
	DiscoverErr error
}

// DemoOptions configures a DemoCentral.
type DemoOptions struct {
	Peripherals []DemoPeripheral
	// AdvertiseInterval repeats advertisements; zero advertises once per scan.
	AdvertiseInterval time.Duration
	// NotifyInterval drives periodic notifications; zero disables them.
	NotifyInterval time.Duration
	// ScanErr is delivered to the scan handler after the first round.
	ScanErr error
	Denied  []Permission
}

// DemoWrite records one write issued against a demo peripheral.
type DemoWrite struct {
	DeviceID    string
	ServiceUUID string
	CharUUID    string
	Data        []byte
}

// DemoCentral serves scripted peripherals for demo mode and tests.
type DemoCentral struct {
	opts DemoOptions

	mu         sync.Mutex
	handler    ScanHandler
	cancelScan context.CancelFunc
	links      map[string]*demoLink
	writes     []DemoWrite
}

// NewDemoCentral creates a demo central with the given peripherals.
func NewDemoCentral(opts DemoOptions) *DemoCentral {
	return &DemoCentral{
		opts:  opts,
		links: make(map[string]*demoLink),
	}
}

func (c *DemoCentral) RequestPermissions(ctx context.Context) PermissionReport {
	report := make(PermissionReport, len(Permissions))
	for _, p := range Permissions {
		report[p] = !slices.Contains(c.opts.Denied, p)
	}
	return report
}

func (c *DemoCentral) Scan(handler ScanHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		return errors.New("bluetooth: scan already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.handler = handler
	c.cancelScan = cancel

	go c.advertise(ctx, handler)
	return nil
}

func (c *DemoCentral) advertise(ctx context.Context, handler ScanHandler) {
	round := func() bool {
		for _, p := range c.opts.Peripherals {
			if ctx.Err() != nil {
				return false
			}
			dev := p.Device
			dev.RSSI = jitterRSSI(dev.RSSI)
			handler(dev, nil)
		}
		return ctx.Err() == nil
	}

	if !round() {
		return
	}
	if c.opts.ScanErr != nil {
		handler(Device{}, c.opts.ScanErr)
		return
	}
	if c.opts.AdvertiseInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.opts.AdvertiseInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !round() {
				return
			}
		}
	}
}

func (c *DemoCentral) StopScan() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelScan != nil {
		c.cancelScan()
	}
	c.handler = nil
	c.cancelScan = nil
	return nil
}

// Scanning reports whether a scan is active.
func (c *DemoCentral) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler != nil
}

// Inject delivers one advertisement to the active scan, synchronously.
// It reports false when no scan is running.
func (c *DemoCentral) Inject(dev Device, err error) bool {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	if handler == nil {
		return false
	}
	handler(dev, err)
	return true
}

func (c *DemoCentral) Connect(ctx context.Context, deviceID string) (Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(c.opts.Peripherals, func(p DemoPeripheral) bool {
		return p.Device.ID == deviceID
	})
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	p := c.opts.Peripherals[idx]
	if p.ConnectErr != nil {
		return nil, fmt.Errorf("connect %s: %w", deviceID, p.ConnectErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.links[deviceID]; ok {
		return nil, fmt.Errorf("connect %s: already connected", deviceID)
	}

	lctx, cancel := context.WithCancel(context.Background())
	l := &demoLink{
		central: c,
		p:       p,
		ctx:     lctx,
		cancel:  cancel,
		subs:    make(map[string]NotifyHandler),
	}
	c.links[deviceID] = l
	return l, nil
}

// Close stops scanning and drops every connection.
func (c *DemoCentral) Close() error {
	_ = c.StopScan()

	c.mu.Lock()
	links := make([]*demoLink, 0, len(c.links))
	for _, l := range c.links {
		links = append(links, l)
	}
	c.mu.Unlock()

	for _, l := range links {
		_ = l.Disconnect()
	}
	return nil
}

// Writes returns every write issued so far.
func (c *DemoCentral) Writes() []DemoWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.writes)
}

// Subscriptions returns the subscribed characteristic keys of a connected device.
func (c *DemoCentral) Subscriptions(deviceID string) []string {
	c.mu.Lock()
	l, ok := c.links[deviceID]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.subs))
	for k := range l.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Connected reports whether deviceID has an open link.
func (c *DemoCentral) Connected(deviceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.links[deviceID]
	return ok
}

// Notify pushes a value (or error) to a subscribed characteristic,
// synchronously. It reports false when nothing is subscribed.
func (c *DemoCentral) Notify(deviceID, serviceUUID, charUUID string, value []byte, err error) bool {
	c.mu.Lock()
	l, ok := c.links[deviceID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	return l.deliver(serviceUUID+"/"+charUUID, value, err)
}

type demoLink struct {
	central *DemoCentral
	p       DemoPeripheral
	ctx     context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	subs map[string]NotifyHandler
}

func (l *demoLink) Device() Device { return l.p.Device }

func (l *demoLink) Discover(ctx context.Context) ([]Service, error) {
	if l.ctx.Err() != nil {
		return nil, ErrNotConnected
	}
	if l.p.DiscoverErr != nil {
		return nil, fmt.Errorf("discover services: %w", l.p.DiscoverErr)
	}

	out := make([]Service, len(l.p.Services))
	for i, s := range l.p.Services {
		out[i] = Service{UUID: s.UUID, Characteristics: slices.Clone(s.Characteristics)}
	}
	return out, nil
}

func (l *demoLink) find(serviceUUID, charUUID string) (Characteristic, bool) {
	for _, s := range l.p.Services {
		if s.UUID != serviceUUID {
			continue
		}
		for _, ch := range s.Characteristics {
			if ch.UUID == charUUID {
				return ch, true
			}
		}
	}
	return Characteristic{}, false
}

func (l *demoLink) Write(ctx context.Context, serviceUUID, charUUID, payload string) error {
	if l.ctx.Err() != nil {
		return ErrNotConnected
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	ch, ok := l.find(serviceUUID, charUUID)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAttribute, serviceUUID, charUUID)
	}
	if !ch.Caps.Has(CapWriteWithResponse) {
		return fmt.Errorf("write %s: characteristic does not accept writes with response", charUUID)
	}

	l.central.mu.Lock()
	l.central.writes = append(l.central.writes, DemoWrite{
		DeviceID:    l.p.Device.ID,
		ServiceUUID: serviceUUID,
		CharUUID:    charUUID,
		Data:        data,
	})
	l.central.mu.Unlock()

	if l.p.EchoTo != "" {
		l.deliver(l.p.EchoTo, data, nil)
	}
	return nil
}

func (l *demoLink) Subscribe(serviceUUID, charUUID string, handler NotifyHandler) error {
	if l.ctx.Err() != nil {
		return ErrNotConnected
	}
	ch, ok := l.find(serviceUUID, charUUID)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAttribute, serviceUUID, charUUID)
	}
	if !ch.Caps.Notifiable() {
		return fmt.Errorf("enable notifications on %s: not notifiable", charUUID)
	}

	l.mu.Lock()
	l.subs[ch.Key()] = handler
	l.mu.Unlock()

	if l.central.opts.NotifyInterval > 0 && ch.Key() != l.p.EchoTo {
		go l.feed(ch, handler)
	}
	return nil
}

// feed produces periodic values for a subscribed characteristic.
func (l *demoLink) feed(ch Characteristic, handler NotifyHandler) {
	ticker := time.NewTicker(l.central.opts.NotifyInterval)
	defer ticker.Stop()

	level := 100
	for n := 1; ; n++ {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
		}

		var value string
		switch ch.UUID {
		case UUIDBatteryLevel:
			if level > 1 {
				level--
			}
			value = fmt.Sprintf("%d%%", level)
		case UUIDHeartRateMsr:
			value = fmt.Sprintf("%d bpm", 60+rand.Intn(40))
		default:
			value = fmt.Sprintf("tick %d", n)
		}
		handler([]byte(value), nil)
	}
}

func (l *demoLink) deliver(key string, value []byte, err error) bool {
	l.mu.Lock()
	handler, ok := l.subs[key]
	l.mu.Unlock()
	if !ok || l.ctx.Err() != nil {
		return false
	}
	handler(append([]byte(nil), value...), err)
	return true
}

func (l *demoLink) Disconnect() error {
	c := l.central
	c.mu.Lock()
	cur, ok := c.links[l.p.Device.ID]
	if !ok || cur != l {
		c.mu.Unlock()
		return ErrNotConnected
	}
	delete(c.links, l.p.Device.ID)
	c.mu.Unlock()

	l.cancel()
	return nil
}

func jitterRSSI(base int16) int16 {
	if base == 0 {
		return 0
	}
	return base + int16(rand.Intn(7)-3)
}
