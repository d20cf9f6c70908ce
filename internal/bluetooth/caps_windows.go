package bluetooth

import (
	"context"

	tinybluetooth "tinygo.org/x/bluetooth"
)

// WinRT reports properties on each characteristic, so there is nothing to
// look up per device.
func characteristicProps(address string) (map[string]charProps, error) {
	return nil, nil
}

func localCaps(ch *tinybluetooth.DeviceCharacteristic) Capability {
	return capsFromProperties(ch.Properties())
}

func writeRequest(ctx context.Context, a attribute, data []byte) error {
	_, err := a.char.Write(data)
	return err
}
