package session

import (
	"time"

	"ble-link.klederson.com/internal/bluetooth"
)

// Phase is the controller's connection lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseConnecting
	PhaseConnected
	PhaseDisconnecting
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseDisconnecting:
		return "disconnecting"
	default:
		return "idle"
	}
}

// Notification is the latest value pushed by one characteristic.
type Notification struct {
	ServiceUUID        string
	CharacteristicUUID string
	Value              []byte
	At                 time.Time
}

// State is an immutable snapshot of the controller.
type State struct {
	Phase       Phase
	Devices     []bluetooth.Device
	Permissions bluetooth.PermissionReport

	// Connection fields are empty unless Phase is PhaseConnected
	// or PhaseDisconnecting.
	Device          bluetooth.Device
	Services        []bluetooth.Service
	Characteristics []bluetooth.Characteristic
	Target          WriteTarget
	Subscribed      []bluetooth.Characteristic
	// Received maps Characteristic.Key to its latest notification.
	Received map[string]Notification
	// LastReceived is the most recent notification from any characteristic.
	LastReceived *Notification
}

// Connected reports whether a device is connected.
func (s State) Connected() bool {
	return s.Phase == PhaseConnected || s.Phase == PhaseDisconnecting
}
