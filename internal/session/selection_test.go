package session

import (
	"testing"

	"ble-link.klederson.com/internal/bluetooth"
	"github.com/stretchr/testify/assert"
)

func TestSelectWriteTarget(t *testing.T) {
	tests := []struct {
		name  string
		chars []bluetooth.Characteristic
		want  WriteTarget
		found bool
	}{
		{
			name:  "empty",
			chars: nil,
		},
		{
			name: "write without response only",
			chars: []bluetooth.Characteristic{
				{UUID: charA, ServiceUUID: svcA, Caps: bluetooth.CapWriteWithoutResponse},
			},
		},
		{
			name:  "first writable wins",
			chars: Flatten(threeServices()),
			want:  WriteTarget{ServiceUUID: svcB, CharacteristicUUID: charB},
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectWriteTarget(tt.chars)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, got.IsSet())
		})
	}
}

func TestFlattenKeepsEnumerationOrder(t *testing.T) {
	chars := Flatten(threeServices())
	uuids := make([]string, len(chars))
	for i, ch := range chars {
		uuids[i] = ch.UUID
	}
	assert.Equal(t, []string{charA, charB, charC}, uuids)
}

func TestExcludeSetIsCaseInsensitive(t *testing.T) {
	set := NewExcludeSet(" E49A25F8-F69A-11E8-8EB2-F2801F1B9FD1 ")
	assert.True(t, set.Contains("e49a25f8-f69a-11e8-8eb2-f2801f1b9fd1"))
	assert.True(t, set.Contains("E49A25F8-f69a-11e8-8eb2-F2801F1B9FD1"))
	assert.False(t, set.Contains(svcA))
}

func TestSelectNotifiable(t *testing.T) {
	chars := []bluetooth.Characteristic{
		{UUID: "1", ServiceUUID: svcA, Caps: bluetooth.CapNotify},
		{UUID: "2", ServiceUUID: svcA, Caps: bluetooth.CapRead},
		{UUID: "3", ServiceUUID: svcB, Caps: bluetooth.CapNotifying},
		{UUID: "4", ServiceUUID: svcC, Caps: bluetooth.CapNotify},
	}

	got := SelectNotifiable(chars, NewExcludeSet(svcC))
	assert.Equal(t, []bluetooth.Characteristic{chars[0], chars[2]}, got)
	assert.Empty(t, SelectNotifiable(chars[1:2], NewExcludeSet()))
}
