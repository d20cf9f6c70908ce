package session

import (
	"strings"

	"ble-link.klederson.com/internal/bluetooth"
)

// WriteTarget is the characteristic that Send writes to.
type WriteTarget struct {
	ServiceUUID        string
	CharacteristicUUID string
}

// IsSet reports whether a target was selected.
func (t WriteTarget) IsSet() bool {
	return t.ServiceUUID != "" && t.CharacteristicUUID != ""
}

// Flatten concatenates every service's characteristics in enumeration order.
func Flatten(services []bluetooth.Service) []bluetooth.Characteristic {
	var out []bluetooth.Characteristic
	for _, s := range services {
		out = append(out, s.Characteristics...)
	}
	return out
}

// SelectWriteTarget picks the first characteristic that accepts writes with
// response. Later matches are ignored.
func SelectWriteTarget(chars []bluetooth.Characteristic) (WriteTarget, bool) {
	for _, ch := range chars {
		if ch.Caps.Has(bluetooth.CapWriteWithResponse) {
			return WriteTarget{ServiceUUID: ch.ServiceUUID, CharacteristicUUID: ch.UUID}, true
		}
	}
	return WriteTarget{}, false
}

// ExcludeSet is a set of service UUIDs whose characteristics are never
// subscribed to. Matching is case-insensitive.
type ExcludeSet map[string]struct{}

// NewExcludeSet builds a set from UUID strings.
func NewExcludeSet(uuids ...string) ExcludeSet {
	s := make(ExcludeSet, len(uuids))
	for _, u := range uuids {
		s[strings.ToLower(strings.TrimSpace(u))] = struct{}{}
	}
	return s
}

// Contains reports whether serviceUUID is excluded.
func (s ExcludeSet) Contains(serviceUUID string) bool {
	_, ok := s[strings.ToLower(serviceUUID)]
	return ok
}

// SelectNotifiable returns every notifiable or notifying characteristic
// outside the excluded services, in enumeration order.
func SelectNotifiable(chars []bluetooth.Characteristic, excluded ExcludeSet) []bluetooth.Characteristic {
	var out []bluetooth.Characteristic
	for _, ch := range chars {
		if !ch.Caps.Notifiable() || excluded.Contains(ch.ServiceUUID) {
			continue
		}
		out = append(out, ch)
	}
	return out
}
