// Package weld snaps nearly coincident positions to shared indexes.
package weld

import (
	"errors"
	"fmt"

	"github.com/Faultbox/shadowvol/pkg/math"
)

// UniqueEpsilon is the per-axis tolerance under which two positions weld.
const UniqueEpsilon = 0.1

// DefaultLimit is the default capacity of a Table.
const DefaultLimit = 100000

// ErrFull is returned when a table has no room for another position.
var ErrFull = errors.New("weld: table full")

// Table is an append-only list of canonical positions.
type Table struct {
	Verts   []math.Vec3
	Limit   int
	Epsilon float32
}

// NewTable creates an empty table. A limit <= 0 uses DefaultLimit.
func NewTable(limit int) *Table {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Table{Limit: limit, Epsilon: UniqueEpsilon}
}

// Len returns the number of canonical positions.
func (t *Table) Len() int {
	return len(t.Verts)
}

// Find returns the index of the first position within Epsilon of v on
// every axis, appending v when none matches.
func (t *Table) Find(v math.Vec3) (int, error) {
	for i, check := range t.Verts {
		if v.Near(check, t.Epsilon) {
			return i, nil
		}
	}
	return t.Append(v)
}

// Append adds v without searching for a match.
func (t *Table) Append(v math.Vec3) (int, error) {
	if len(t.Verts) >= t.Limit {
		return 0, fmt.Errorf("%w: %d positions", ErrFull, t.Limit)
	}
	t.Verts = append(t.Verts, v)
	return len(t.Verts) - 1, nil
}

// Positions welds a list of positions, returning the canonical positions
// and the remap from input index to canonical index.
func Positions(verts []math.Vec3, eps float32) (unique []math.Vec3, remap []int) {
	t := &Table{Limit: len(verts) + 1, Epsilon: eps}
	remap = make([]int, len(verts))
	for i, v := range verts {
		// the limit can never be hit here
		remap[i], _ = t.Find(v)
	}
	return t.Verts, remap
}
