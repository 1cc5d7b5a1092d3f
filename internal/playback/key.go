package playback

import (
	"fmt"
	"strconv"
	"strings"
)

// SlotKey is the canonical identity of a playback channel. Two shapes
// exist: "Slot_<col>_<row>" for ordinary slots and "Trigger_<col>" for
// trigger columns, both 1-based. The UI layer keys its button state on
// these strings, so the format is part of the contract.
type SlotKey string

const (
	slotKeyPrefix    = "Slot_"
	triggerKeyPrefix = "Trigger_"
)

// SlotKeyFor builds the key of an ordinary slot channel.
func SlotKeyFor(col, row int) SlotKey {
	return SlotKey(fmt.Sprintf("Slot_%d_%d", col, row))
}

// TriggerKeyFor builds the key of a trigger column channel.
func TriggerKeyFor(col int) SlotKey {
	return SlotKey(fmt.Sprintf("Trigger_%d", col))
}

// IsTrigger reports whether the key names a trigger column.
func (k SlotKey) IsTrigger() bool {
	return strings.HasPrefix(string(k), triggerKeyPrefix)
}

// TriggerColumn returns the column of a trigger key.
func (k SlotKey) TriggerColumn() (int, bool) {
	if !k.IsTrigger() {
		return 0, false
	}
	col, err := strconv.Atoi(strings.TrimPrefix(string(k), triggerKeyPrefix))
	if err != nil || col < 1 {
		return 0, false
	}
	return col, true
}

// Coordinates returns the column and row of an ordinary slot key.
func (k SlotKey) Coordinates() (col, row int, ok bool) {
	if !strings.HasPrefix(string(k), slotKeyPrefix) {
		return 0, 0, false
	}
	parts := strings.Split(strings.TrimPrefix(string(k), slotKeyPrefix), "_")
	if len(parts) != 2 {
		return 0, 0, false
	}
	col, err1 := strconv.Atoi(parts[0])
	row, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || col < 1 || row < 1 {
		return 0, 0, false
	}
	return col, row, true
}
