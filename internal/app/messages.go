package app

import "time"

// SessionChangedMsg tells the model to re-read the controller snapshot.
type SessionChangedMsg struct{}

// ChartTickMsg adds one simulated sample. Ticks from an older chart
// generation are dropped.
type ChartTickMsg struct {
	Gen  uint64
	Time time.Time
}

// PermissionsMsg carries the result of the startup permission request.
type PermissionsMsg struct {
	Denied int
}
