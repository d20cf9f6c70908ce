package session

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"ble-link.klederson.com/internal/bluetooth"
	"ble-link.klederson.com/internal/config"
)

// Options configures a Controller.
type Options struct {
	ScanWindow       time.Duration
	ExcludedServices []string
	Logger           *slog.Logger
	// OnChange runs after every state change, on whatever goroutine caused
	// it. It must not call back into the Controller synchronously.
	OnChange func()
}

// Controller owns the scan and the single active connection. Every
// operation logs and swallows its errors.
type Controller struct {
	central  bluetooth.Central
	window   time.Duration
	excluded ExcludeSet
	log      *slog.Logger

	mu        sync.Mutex
	closed    bool
	onChange  func()
	phase     Phase
	perms     bluetooth.PermissionReport
	devices   *DeviceList
	scanGen   uint64
	scanTimer *time.Timer

	link       bluetooth.Link
	connGen    uint64
	device     bluetooth.Device
	services   []bluetooth.Service
	chars      []bluetooth.Characteristic
	target     WriteTarget
	subscribed []bluetooth.Characteristic
	received   map[string]Notification
	last       *Notification
}

// New creates a Controller over central.
func New(central bluetooth.Central, opts Options) *Controller {
	if opts.ScanWindow <= 0 {
		opts.ScanWindow = config.ScanWindow
	}
	if opts.ExcludedServices == nil {
		opts.ExcludedServices = []string{config.ExcludedService}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		central:  central,
		window:   opts.ScanWindow,
		excluded: NewExcludeSet(opts.ExcludedServices...),
		log:      opts.Logger,
		onChange: opts.OnChange,
		devices:  NewDeviceList(),
	}
}

// SetOnChange replaces the change hook.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// RequestPermissions asks the central for the scan, connect and location
// permissions. Denials are only logged.
func (c *Controller) RequestPermissions(ctx context.Context) bluetooth.PermissionReport {
	report := c.central.RequestPermissions(ctx)
	if denied := report.Denied(); len(denied) > 0 {
		c.log.Warn("not all permissions granted", "denied", denied)
	}

	c.mu.Lock()
	c.perms = report
	c.mu.Unlock()
	c.changed()
	return report
}

// StartScan clears the device list and scans for the configured window.
// Calling it during a scan restarts the window with an empty list.
func (c *Controller) StartScan(ctx context.Context) {
	c.mu.Lock()
	if c.closed || (c.phase != PhaseIdle && c.phase != PhaseScanning) {
		phase := c.phase
		c.mu.Unlock()
		c.log.Warn("scan refused", "phase", phase)
		return
	}

	running := c.phase == PhaseScanning
	c.devices.Reset()
	c.phase = PhaseScanning
	c.scanGen++
	gen := c.scanGen
	if c.scanTimer != nil {
		c.scanTimer.Stop()
	}
	c.scanTimer = time.AfterFunc(c.window, func() { c.expireScan(gen) })
	c.mu.Unlock()

	if !running {
		if err := c.central.Scan(c.onAdvertisement); err != nil {
			c.log.Warn("scan error", "err", err)
			c.mu.Lock()
			if c.scanGen == gen {
				c.finishScanLocked()
			}
			c.mu.Unlock()
		} else {
			c.log.Info("scan started", "window", c.window)
		}
	}
	c.changed()
}

func (c *Controller) onAdvertisement(dev bluetooth.Device, err error) {
	if err != nil {
		c.log.Warn("scan error", "err", err)
		c.StopScan()
		return
	}

	c.mu.Lock()
	if c.phase != PhaseScanning {
		c.mu.Unlock()
		return
	}
	added := c.devices.Add(dev)
	c.mu.Unlock()

	if added {
		c.log.Debug("device discovered", "device", dev.ID, "name", dev.Name, "rssi", dev.RSSI)
		c.changed()
	}
}

func (c *Controller) expireScan(gen uint64) {
	c.mu.Lock()
	current := gen == c.scanGen
	c.mu.Unlock()
	if current {
		c.StopScan()
	}
}

// finishScanLocked leaves the scanning phase. Callers hold c.mu.
func (c *Controller) finishScanLocked() bool {
	if c.phase != PhaseScanning {
		return false
	}
	c.phase = PhaseIdle
	c.scanGen++
	if c.scanTimer != nil {
		c.scanTimer.Stop()
		c.scanTimer = nil
	}
	return true
}

// StopScan ends a running scan early. It is a no-op when not scanning.
func (c *Controller) StopScan() {
	c.mu.Lock()
	stopped := c.finishScanLocked()
	found := c.devices.Len()
	c.mu.Unlock()

	if !stopped {
		return
	}
	if err := c.central.StopScan(); err != nil {
		c.log.Warn("stop scan error", "err", err)
	}
	c.log.Info("scan stopped", "devices", found)
	c.changed()
}

// Connect connects to deviceID, discovers its GATT table, selects the write
// target and subscribes to every notifiable characteristic outside the
// excluded services. Failures leave the controller idle.
func (c *Controller) Connect(ctx context.Context, deviceID string) {
	c.StopScan()

	c.mu.Lock()
	if c.closed || c.phase != PhaseIdle {
		phase := c.phase
		c.mu.Unlock()
		c.log.Warn("connect refused", "device", deviceID, "phase", phase)
		return
	}
	c.phase = PhaseConnecting
	c.mu.Unlock()
	c.changed()

	link, err := c.central.Connect(ctx, deviceID)
	if err != nil {
		c.log.Error("connection error", "device", deviceID, "err", err)
		c.setIdle()
		return
	}
	if c.isClosed() {
		c.abandon(link, deviceID, "controller closed")
		return
	}

	services, err := link.Discover(ctx)
	if err != nil {
		c.log.Error("discovery error", "device", deviceID, "err", err)
		c.abandon(link, deviceID, "discovery failed")
		return
	}

	chars := Flatten(services)
	target, _ := SelectWriteTarget(chars)
	notifiable := SelectNotifiable(chars, c.excluded)

	dev := link.Device()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.abandon(link, deviceID, "controller closed")
		return
	}
	c.connGen++
	gen := c.connGen
	c.link = link
	c.device = dev
	c.services = services
	c.chars = chars
	c.target = target
	c.subscribed = nil
	c.received = make(map[string]Notification)
	c.last = nil
	c.phase = PhaseConnected
	c.mu.Unlock()

	for _, ch := range notifiable {
		if err := link.Subscribe(ch.ServiceUUID, ch.UUID, c.notifyHandler(gen, ch)); err != nil {
			c.log.Warn("monitor error", "device", deviceID, "characteristic", ch.UUID, "err", err)
			continue
		}
		c.mu.Lock()
		if gen == c.connGen {
			c.subscribed = append(c.subscribed, ch)
		}
		c.mu.Unlock()
	}

	c.log.Info("connected",
		"device", deviceID,
		"name", dev.Name,
		"services", len(services),
		"characteristics", len(chars),
		"write_service", target.ServiceUUID,
		"write_characteristic", target.CharacteristicUUID,
		"subscriptions", len(notifiable),
	)
	c.changed()
}

// abandon releases a link that never became the active connection.
func (c *Controller) abandon(link bluetooth.Link, deviceID, reason string) {
	if err := link.Disconnect(); err != nil {
		c.log.Warn("release link", "device", deviceID, "reason", reason, "err", err)
	} else {
		c.log.Debug("released link", "device", deviceID, "reason", reason)
	}
	c.setIdle()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) notifyHandler(gen uint64, ch bluetooth.Characteristic) bluetooth.NotifyHandler {
	return func(value []byte, err error) {
		if err != nil {
			c.log.Warn("monitor error", "characteristic", ch.UUID, "err", err)
			return
		}
		if len(value) == 0 {
			return
		}

		n := Notification{
			ServiceUUID:        ch.ServiceUUID,
			CharacteristicUUID: ch.UUID,
			Value:              value,
			At:                 time.Now(),
		}
		c.mu.Lock()
		if gen != c.connGen {
			c.mu.Unlock()
			return
		}
		c.received[ch.Key()] = n
		c.last = &n
		c.mu.Unlock()
		c.changed()
	}
}

func (c *Controller) setIdle() {
	c.mu.Lock()
	c.clearConnectionLocked()
	c.phase = PhaseIdle
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) clearConnectionLocked() {
	c.connGen++
	c.link = nil
	c.device = bluetooth.Device{}
	c.services = nil
	c.chars = nil
	c.target = WriteTarget{}
	c.subscribed = nil
	c.received = nil
	c.last = nil
}

// Send writes text, base64 encoded, to the write target. It warns and does
// nothing when no device is connected or no target was selected.
func (c *Controller) Send(ctx context.Context, text string) {
	c.mu.Lock()
	link, target, phase := c.link, c.target, c.phase
	c.mu.Unlock()

	if phase != PhaseConnected || link == nil {
		c.log.Warn("no device connected")
		return
	}
	if !target.IsSet() {
		c.log.Warn("no write target selected")
		return
	}

	payload := base64.StdEncoding.EncodeToString([]byte(text))
	if err := link.Write(ctx, target.ServiceUUID, target.CharacteristicUUID, payload); err != nil {
		c.log.Error("send error", "characteristic", target.CharacteristicUUID, "err", err)
		return
	}
	c.log.Info("sent", "text", text, "characteristic", target.CharacteristicUUID)
}

// Disconnect cancels the connection and clears the GATT state. Errors from
// the binding are logged; the state is cleared either way.
func (c *Controller) Disconnect(ctx context.Context) {
	c.mu.Lock()
	if c.phase != PhaseConnected {
		c.mu.Unlock()
		return
	}
	link := c.link
	id := c.device.ID
	c.phase = PhaseDisconnecting
	c.mu.Unlock()
	c.changed()

	if err := link.Disconnect(); err != nil {
		c.log.Error("disconnect error", "device", id, "err", err)
	} else {
		c.log.Info("disconnected", "device", id)
	}
	c.setIdle()
}

// Close stops scanning, disconnects and releases the central. A connect still
// in flight releases its link when it returns.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.StopScan()
	c.Disconnect(context.Background())
	if err := c.central.Close(); err != nil {
		c.log.Warn("release central", "err", err)
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Phase:           c.phase,
		Devices:         c.devices.Snapshot(),
		Permissions:     maps.Clone(c.perms),
		Device:          c.device,
		Services:        slices.Clone(c.services),
		Characteristics: slices.Clone(c.chars),
		Target:          c.target,
		Subscribed:      slices.Clone(c.subscribed),
		Received:        maps.Clone(c.received),
	}
	if c.last != nil {
		last := *c.last
		st.LastReceived = &last
	}
	return st
}
