package slot

import (
	"fmt"
	"math/rand/v2"
)

// Outcome is one visible reel window. Cells are stored column-major as
// symbol indexes; the buffer is reused between spins.
type Outcome struct {
	cells []uint8
	reels int
	rows  int
}

// NewOutcome allocates a window buffer sized for the model's grid.
func (m *Model) NewOutcome() *Outcome {
	return &Outcome{
		cells: make([]uint8, m.Reels*m.Rows),
		reels: m.Reels,
		rows:  m.Rows,
	}
}

func (o *Outcome) at(reel, row int) uint8 {
	return o.cells[reel*o.rows+row]
}

// Symbols renders the window as symbol ids, column-major.
func (o *Outcome) Symbols(m *Model) [][]string {
	out := make([][]string, o.reels)
	for r := 0; r < o.reels; r++ {
		col := make([]string, o.rows)
		for w := 0; w < o.rows; w++ {
			col[w] = m.Symbols[o.at(r, w)].ID
		}
		out[r] = col
	}
	return out
}

// BuildOutcome packs an explicit window, column-major, into an Outcome.
// Used at the boundary and in tests to replay known grids.
func (m *Model) BuildOutcome(grid [][]string) (*Outcome, error) {
	if len(grid) != m.Reels {
		return nil, fmt.Errorf("slot: grid has %d columns, model has %d reels", len(grid), m.Reels)
	}
	o := m.NewOutcome()
	for r, col := range grid {
		if len(col) != m.Rows {
			return nil, fmt.Errorf("slot: column %d has %d rows, model has %d", r, len(col), m.Rows)
		}
		for w, id := range col {
			idx, ok := m.index[id]
			if !ok {
				return nil, fmt.Errorf("slot: unknown symbol %q in grid", id)
			}
			o.cells[r*o.rows+w] = idx
		}
	}
	return o, nil
}

// SpinInto fills the window with one independent spin: each reel stops at
// a uniform strip position and shows Rows consecutive stops, wrapping at
// the end of the strip.
func (m *Model) SpinInto(o *Outcome, rng *rand.Rand) {
	for r := 0; r < m.Reels; r++ {
		strip := m.packed[r]
		start := rng.IntN(len(strip))
		base := r * o.rows
		for w := 0; w < m.Rows; w++ {
			o.cells[base+w] = strip[(start+w)%len(strip)]
		}
	}
}

// Spin is the allocating convenience form of SpinInto.
func (m *Model) Spin(rng *rand.Rand) *Outcome {
	o := m.NewOutcome()
	m.SpinInto(o, rng)
	return o
}

// CountScatters counts scatter symbols anywhere in the window.
func (m *Model) CountScatters(o *Outcome) int {
	if !m.hasScatter {
		return 0
	}
	n := 0
	for _, c := range o.cells {
		if c == m.scatterIdx {
			n++
		}
	}
	return n
}
