package bluetooth

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uartPeripheral(id string) DemoPeripheral {
	return DemoPeripheral{
		Device:   Device{ID: id, Name: "uart-" + id},
		Services: []Service{batteryService(), uartService()},
		EchoTo:   UUIDUART + "/" + UUIDUARTTX,
	}
}

func TestCapability(t *testing.T) {
	c := CapRead | CapWriteWithoutResponse
	assert.True(t, c.Writable())
	assert.False(t, c.Has(CapWriteWithResponse))
	assert.False(t, c.Notifiable())
	assert.Equal(t, "read,write-nr", c.String())

	assert.True(t, CapNotifying.Notifiable())
	assert.True(t, (CapNotify | CapRead).Has(CapNotify|CapRead))
}

func TestPermissionReportDenied(t *testing.T) {
	c := NewDemoCentral(DemoOptions{Denied: []Permission{PermissionLocation, PermissionScan}})
	report := c.RequestPermissions(context.Background())
	assert.Equal(t, []Permission{PermissionScan, PermissionLocation}, report.Denied())
	assert.True(t, report[PermissionConnect])

	all := NewDemoCentral(DemoOptions{}).RequestPermissions(context.Background())
	assert.Empty(t, all.Denied())
}

func TestDemoScanAdvertisesInOrder(t *testing.T) {
	c := NewDemoCentral(DemoOptions{Peripherals: []DemoPeripheral{
		uartPeripheral("A"), uartPeripheral("B"),
	}})

	var (
		mu  sync.Mutex
		ids []string
	)
	require.NoError(t, c.Scan(func(dev Device, err error) {
		assert.NoError(t, err)
		mu.Lock()
		ids = append(ids, dev.ID)
		mu.Unlock()
	}))
	assert.Error(t, c.Scan(func(Device, error) {}), "second scan must be refused")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ids) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"A", "B"}, ids)

	require.NoError(t, c.StopScan())
	assert.False(t, c.Scanning())
	assert.False(t, c.Inject(Device{ID: "C"}, nil))
}

func TestDemoScanError(t *testing.T) {
	scanErr := errors.New("adapter reset")
	c := NewDemoCentral(DemoOptions{ScanErr: scanErr})

	got := make(chan error, 1)
	require.NoError(t, c.Scan(func(_ Device, err error) {
		if err != nil {
			got <- err
		}
	}))

	select {
	case err := <-got:
		assert.ErrorIs(t, err, scanErr)
	case <-time.After(time.Second):
		t.Fatal("scan error not delivered")
	}
}

func TestDemoConnectWriteEcho(t *testing.T) {
	c := NewDemoCentral(DemoOptions{Peripherals: []DemoPeripheral{uartPeripheral("A")}})
	ctx := context.Background()

	_, err := c.Connect(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownDevice)

	link, err := c.Connect(ctx, "A")
	require.NoError(t, err)
	assert.True(t, c.Connected("A"))

	_, err = c.Connect(ctx, "A")
	assert.Error(t, err)

	svcs, err := link.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, svcs, 2)
	assert.Equal(t, UUIDUART, svcs[1].UUID)

	var echoed []byte
	require.NoError(t, link.Subscribe(UUIDUART, UUIDUARTTX, func(v []byte, err error) {
		echoed = v
	}))
	assert.Equal(t, []string{UUIDUART + "/" + UUIDUARTTX}, c.Subscriptions("A"))

	payload := base64.StdEncoding.EncodeToString([]byte("hi"))
	require.NoError(t, link.Write(ctx, UUIDUART, UUIDUARTRX, payload))
	assert.Equal(t, []byte("hi"), echoed)

	writes := c.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, DemoWrite{DeviceID: "A", ServiceUUID: UUIDUART, CharUUID: UUIDUARTRX, Data: []byte("hi")}, writes[0])

	assert.Error(t, link.Write(ctx, UUIDUART, UUIDUARTTX, payload), "TX is not writable")
	assert.ErrorIs(t, link.Write(ctx, UUIDUART, "nope", payload), ErrUnknownAttribute)
	assert.Error(t, link.Write(ctx, UUIDUART, UUIDUARTRX, "%%%"), "invalid base64")
	assert.Error(t, link.Subscribe(UUIDUART, UUIDUARTRX, func([]byte, error) {}), "RX is not notifiable")

	require.NoError(t, link.Disconnect())
	assert.False(t, c.Connected("A"))
	assert.ErrorIs(t, link.Disconnect(), ErrNotConnected)
	assert.ErrorIs(t, link.Write(ctx, UUIDUART, UUIDUARTRX, payload), ErrNotConnected)
	assert.False(t, c.Notify("A", UUIDUART, UUIDUARTTX, []byte("x"), nil))
}

func TestDemoConnectAndDiscoverErrors(t *testing.T) {
	boom := errors.New("boom")
	p := uartPeripheral("A")
	p.ConnectErr = boom
	q := uartPeripheral("B")
	q.DiscoverErr = boom
	c := NewDemoCentral(DemoOptions{Peripherals: []DemoPeripheral{p, q}})

	_, err := c.Connect(context.Background(), "A")
	assert.ErrorIs(t, err, boom)

	link, err := c.Connect(context.Background(), "B")
	require.NoError(t, err)
	_, err = link.Discover(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDemoPeriodicNotifications(t *testing.T) {
	c := NewDemoCentral(DemoOptions{
		Peripherals:    []DemoPeripheral{uartPeripheral("A")},
		NotifyInterval: 5 * time.Millisecond,
	})
	link, err := c.Connect(context.Background(), "A")
	require.NoError(t, err)

	got := make(chan string, 16)
	require.NoError(t, link.Subscribe(UUIDBattery, UUIDBatteryLevel, func(v []byte, err error) {
		select {
		case got <- string(v):
		default:
		}
	}))

	select {
	case v := <-got:
		assert.Equal(t, "99%", v)
	case <-time.After(time.Second):
		t.Fatal("no periodic notification")
	}
	require.NoError(t, c.Close())
	assert.False(t, c.Connected("A"))
}

func TestDefaultDemoPeripherals(t *testing.T) {
	ps := DefaultDemoPeripherals()
	require.NotEmpty(t, ps)

	var unnamed, vendor int
	for _, p := range ps {
		assert.Len(t, p.Device.ID, 17)
		if p.Device.Name == "" {
			unnamed++
		}
		for _, s := range p.Services {
			if s.UUID == UUIDVendor {
				vendor++
			}
			for _, ch := range s.Characteristics {
				assert.Equal(t, s.UUID, ch.ServiceUUID)
			}
		}
	}
	assert.Positive(t, unnamed)
	assert.Positive(t, vendor)
}
