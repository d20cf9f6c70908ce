package bluetooth

import (
	"context"
	"errors"

	tinybluetooth "tinygo.org/x/bluetooth"
)

// CoreBluetooth keeps characteristic properties out of tinygo's handle.
func characteristicProps(address string) (map[string]charProps, error) {
	return nil, errors.New("bluetooth: characteristic flags are not exposed by CoreBluetooth")
}

func localCaps(*tinybluetooth.DeviceCharacteristic) Capability { return 0 }

func writeRequest(ctx context.Context, a attribute, data []byte) error {
	_, err := a.char.Write(data)
	return err
}
