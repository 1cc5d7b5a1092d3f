package slots

import (
	"fmt"
	"sync"

	"cuegrid/internal/media"
)

// TriggerRows is the number of leading rows in a column that by
// convention feed that column's trigger pairing.
const TriggerRows = 2

// Slot is one grid cell: coordinates, an optional asset and a marker
// for trigger-reserved rows. Coordinates are 1-based.
type Slot struct {
	Column   int          `json:"column"`
	Row      int          `json:"row"`
	Reserved bool         `json:"reserved"`
	Asset    *media.Asset `json:"asset,omitempty"`
}

type coord struct {
	col, row int
}

// Grid holds the operator's slot layout. It is the read-only asset
// source for the playback engine and the mutable target of assignment
// calls from the control API.
type Grid struct {
	mu    sync.RWMutex
	slots map[coord]*Slot
}

func NewGrid() *Grid {
	return &Grid{
		slots: make(map[coord]*Slot),
	}
}

// Assign places an asset into a slot, replacing any previous one. The
// asset's kind is classified from its path when not set explicitly.
func (g *Grid) Assign(col, row int, asset media.Asset) (*Slot, error) {
	if col < 1 || row < 1 {
		return nil, fmt.Errorf("slot coordinates must be positive, got (%d,%d)", col, row)
	}

	if asset.Kind == media.KindUnknown {
		if asset.Text != nil {
			asset.Kind = media.KindText
		} else {
			asset.Kind = media.KindForFile(asset.Path)
		}
	}
	if asset.Kind == media.KindUnknown {
		return nil, fmt.Errorf("unsupported media file: %s", asset.Path)
	}
	if asset.Kind != media.KindText && asset.Path == "" {
		return nil, fmt.Errorf("asset path required for %s slots", asset.Kind)
	}
	asset.Normalize()

	s := &Slot{
		Column:   col,
		Row:      row,
		Reserved: row <= TriggerRows,
		Asset:    &asset,
	}

	g.mu.Lock()
	g.slots[coord{col, row}] = s
	g.mu.Unlock()

	return s, nil
}

// Clear removes a slot's asset. Returns true if something was removed.
func (g *Grid) Clear(col, row int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.slots[coord{col, row}]; !ok {
		return false
	}
	delete(g.slots, coord{col, row})
	return true
}

// Asset returns the asset assigned to a slot, or nil.
func (g *Grid) Asset(col, row int) *media.Asset {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if s, ok := g.slots[coord{col, row}]; ok {
		return s.Asset
	}
	return nil
}

// Slot returns the slot at the given coordinates, or nil.
func (g *Grid) Slot(col, row int) *Slot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.slots[coord{col, row}]
}

// Snapshot returns all occupied slots in no particular order.
func (g *Grid) Snapshot() []Slot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Slot, 0, len(g.slots))
	for _, s := range g.slots {
		out = append(out, *s)
	}
	return out
}
