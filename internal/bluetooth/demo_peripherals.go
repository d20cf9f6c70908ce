package bluetooth

import (
	"fmt"
	"math/rand"
)

// demoProfile names which GATT table a demo peripheral serves.
type demoProfile int

const (
	profileUART demoProfile = iota
	profileHeartRate
	profileVendor
	profileBeacon
)

var demoTemplates = []struct {
	Name      string
	CompanyID uint16
	Profile   demoProfile
}{
	{"Nordic UART", 0x0059, profileUART},
	{"Polar H10", 0, profileHeartRate},
	{"Fitbit Charge 6", 0x03DA, profileHeartRate},
	{"Apple Watch", 0x004C, profileHeartRate},
	{"ESP32 Bridge", 0x015D, profileUART},
	{"Sensor Hub", 0x0059, profileVendor},
	{"Tile Tracker", 0x02FF, profileBeacon},
	{"JBL Flip 6", 0x0131, profileBeacon},
	{"", 0x004C, profileBeacon},
	{"", 0, profileVendor},
}

// DefaultDemoPeripherals builds the peripherals served in --demo mode, each
// with a random address.
func DefaultDemoPeripherals() []DemoPeripheral {
	out := make([]DemoPeripheral, 0, len(demoTemplates))
	for _, tmpl := range demoTemplates {
		p := DemoPeripheral{
			Device: Device{
				ID:           randomMAC(),
				Name:         tmpl.Name,
				RSSI:         int16(-40 - rand.Intn(50)), // -40 to -89 dBm
				Manufacturer: LookupManufacturer(tmpl.CompanyID),
			},
			Services: []Service{deviceInfoService(), batteryService()},
		}

		switch tmpl.Profile {
		case profileUART:
			p.Services = append(p.Services, uartService())
			p.EchoTo = UUIDUART + "/" + UUIDUARTTX
		case profileHeartRate:
			p.Services = append(p.Services, heartRateService())
		case profileVendor:
			// The vendor service notifies too, but must never be subscribed.
			p.Services = append(p.Services, vendorService(), uartService())
			p.EchoTo = UUIDUART + "/" + UUIDUARTTX
		}
		out = append(out, p)
	}
	return out
}

func deviceInfoService() Service {
	return Service{UUID: UUIDDeviceInfo, Characteristics: []Characteristic{
		{UUID: UUIDManufacturer, ServiceUUID: UUIDDeviceInfo, Caps: CapRead},
	}}
}

func batteryService() Service {
	return Service{UUID: UUIDBattery, Characteristics: []Characteristic{
		{UUID: UUIDBatteryLevel, ServiceUUID: UUIDBattery, Caps: CapRead | CapNotify},
	}}
}

func heartRateService() Service {
	return Service{UUID: UUIDHeartRate, Characteristics: []Characteristic{
		{UUID: UUIDHeartRateMsr, ServiceUUID: UUIDHeartRate, Caps: CapNotify},
	}}
}

func uartService() Service {
	return Service{UUID: UUIDUART, Characteristics: []Characteristic{
		{UUID: UUIDUARTRX, ServiceUUID: UUIDUART, Caps: CapWriteWithResponse | CapWriteWithoutResponse},
		{UUID: UUIDUARTTX, ServiceUUID: UUIDUART, Caps: CapNotify},
	}}
}

func vendorService() Service {
	return Service{UUID: UUIDVendor, Characteristics: []Characteristic{
		{UUID: UUIDVendorData, ServiceUUID: UUIDVendor, Caps: CapRead | CapNotify | CapWriteWithoutResponse},
	}}
}

func randomMAC() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}
