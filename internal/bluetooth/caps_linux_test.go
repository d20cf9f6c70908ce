//go:build linux

package bluetooth

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropsFromObjects(t *testing.T) {
	dev := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")
	other := dbus.ObjectPath("/org/bluez/hci0/dev_11_22_33_44_55_66")

	objs := managedObjects{
		dev: {bluezDevice: {"Address": dbus.MakeVariant("AA:BB:CC:DD:EE:FF")}},
		dev + "/service0010": {bluezService: {
			"UUID":   dbus.MakeVariant("6E400001-B5A3-F393-E0A9-E50E24DCCA9E"),
			"Device": dbus.MakeVariant(dev),
		}},
		dev + "/service0010/char0011": {bluezCharacter: {
			"UUID":    dbus.MakeVariant("6e400002-b5a3-f393-e0a9-e50e24dcca9e"),
			"Service": dbus.MakeVariant(dev + "/service0010"),
			"Flags":   dbus.MakeVariant([]string{"write", "write-without-response"}),
		}},
		dev + "/service0010/char0013": {bluezCharacter: {
			"UUID":      dbus.MakeVariant("6e400003-b5a3-f393-e0a9-e50e24dcca9e"),
			"Service":   dbus.MakeVariant(dev + "/service0010"),
			"Flags":     dbus.MakeVariant([]string{"read", "notify"}),
			"Notifying": dbus.MakeVariant(true),
		}},
		other: {bluezDevice: {"Address": dbus.MakeVariant("11:22:33:44:55:66")}},
		other + "/service0001": {bluezService: {
			"UUID":   dbus.MakeVariant("0000180f-0000-1000-8000-00805f9b34fb"),
			"Device": dbus.MakeVariant(other),
		}},
		other + "/service0001/char0002": {bluezCharacter: {
			"UUID":    dbus.MakeVariant("00002a19-0000-1000-8000-00805f9b34fb"),
			"Service": dbus.MakeVariant(other + "/service0001"),
			"Flags":   dbus.MakeVariant([]string{"read"}),
		}},
	}

	props := propsFromObjects(objs, "aa:bb:cc:dd:ee:ff")
	assert.Len(t, props, 2)

	rx := props["6e400001-b5a3-f393-e0a9-e50e24dcca9e/6e400002-b5a3-f393-e0a9-e50e24dcca9e"]
	assert.Equal(t, CapWriteWithResponse|CapWriteWithoutResponse, rx.caps)
	assert.Equal(t, string(dev)+"/service0010/char0011", rx.path)

	tx := props["6e400001-b5a3-f393-e0a9-e50e24dcca9e/6e400003-b5a3-f393-e0a9-e50e24dcca9e"]
	assert.Equal(t, CapRead|CapNotify|CapNotifying, tx.caps)
	assert.Equal(t, string(dev)+"/service0010/char0013", tx.path)
}

func TestPropsFromObjectsUnknownDevice(t *testing.T) {
	assert.Empty(t, propsFromObjects(managedObjects{}, "AA:BB:CC:DD:EE:FF"))
}

type recordedCall struct {
	method string
	args   []interface{}
}

type fakeObject struct {
	calls []recordedCall
	err   error
}

func (o *fakeObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	o.calls = append(o.calls, recordedCall{method: method, args: args})
	return &dbus.Call{Method: method, Args: args, Err: o.err}
}

func TestWriteValueRequestsResponse(t *testing.T) {
	obj := &fakeObject{}
	require.NoError(t, writeValue(context.Background(), obj, []byte("hi")))

	require.Len(t, obj.calls, 1)
	call := obj.calls[0]
	assert.Equal(t, "org.bluez.GattCharacteristic1.WriteValue", call.method)
	require.Len(t, call.args, 2)
	assert.Equal(t, []byte("hi"), call.args[0])
	opts, ok := call.args[1].(map[string]dbus.Variant)
	require.True(t, ok)
	assert.Equal(t, "request", opts["type"].Value())
}

func TestWriteValueReturnsBusError(t *testing.T) {
	obj := &fakeObject{err: errors.New("org.bluez.Error.NotPermitted")}
	assert.ErrorContains(t, writeValue(context.Background(), obj, []byte("x")), "NotPermitted")
}

func TestWriteRequestNeedsObjectPath(t *testing.T) {
	err := writeRequest(context.Background(), attribute{}, []byte("x"))
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}
