package slot

import (
	"fmt"
	"strings"
)

// Symbol tiers. Wild and scatter symbols never carry their own pays.
type Tier string

const (
	TierHigh    Tier = "high"
	TierLow     Tier = "low"
	TierWild    Tier = "wild"
	TierScatter Tier = "scatter"
)

// Symbol is one entry of the game's symbol set. Pays maps a run length
// (contiguous reels from the left) to a bet multiplier.
type Symbol struct {
	ID   string
	Tier Tier
	Pays map[int]float64
}

// ReelStrip is the ordered stop sequence of one reel.
type ReelStrip []string

// Model is the immutable per-run game configuration: grid shape, reel
// strips, symbol set and feature rules. It is never mutated during a
// batch; the optimizer works on clones between batches.
type Model struct {
	Reels int
	Rows  int

	Strips  []ReelStrip
	Symbols []Symbol

	Wild    string
	Scatter string

	// FreeSpinTrigger maps a scatter count to the number of free spins
	// awarded. FreeSpinMultiplier applies to every free-spin win.
	FreeSpinTrigger    map[int]int
	FreeSpinMultiplier float64
	Retrigger          bool

	// MaxFreeSpins bounds the total spins of one cascade so that a
	// pathological trigger table cannot retrigger forever.
	MaxFreeSpins int

	// compiled lookup tables, built once by NewModel
	index      map[string]uint8
	packed     [][]uint8    // strips as symbol indexes
	pays       [][]float64  // [symbol index][run length]
	paying     []uint8      // indexes of symbols with a non-empty paytable
	wildIdx    uint8
	scatterIdx uint8
	hasWild    bool
	hasScatter bool
}

// DefaultMaxFreeSpins caps a single free-spin cascade.
const DefaultMaxFreeSpins = 1000

const minRunLength = 3

// ConfigError is the fatal configuration failure of the engine. It is
// never retried; all detected issues are reported at once.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	return "invalid slot configuration: " + strings.Join(e.Issues, "; ")
}

// NewModel validates the configuration and compiles the lookup tables
// used by the spin and evaluation hot paths. It returns *ConfigError
// when the configuration is unusable.
func NewModel(m Model) (*Model, error) {
	var issues []string

	if m.Reels <= 0 || m.Rows <= 0 {
		issues = append(issues, fmt.Sprintf("grid dimensions must be positive, got %dx%d", m.Reels, m.Rows))
	}
	if len(m.Symbols) == 0 {
		issues = append(issues, "symbol set is empty")
	}
	if len(m.Symbols) > 255 {
		issues = append(issues, "symbol set exceeds 255 entries")
	}
	if len(m.Strips) != m.Reels {
		issues = append(issues, fmt.Sprintf("expected %d reel strips, got %d", m.Reels, len(m.Strips)))
	}

	m.index = make(map[string]uint8, len(m.Symbols))
	for i, s := range m.Symbols {
		if s.ID == "" {
			issues = append(issues, fmt.Sprintf("symbol %d has an empty id", i))
			continue
		}
		if _, dup := m.index[s.ID]; dup {
			issues = append(issues, "duplicate symbol id "+s.ID)
			continue
		}
		m.index[s.ID] = uint8(i)
		if (s.Tier == TierWild || s.Tier == TierScatter) && len(s.Pays) > 0 {
			issues = append(issues, s.ID+": wild/scatter symbols must not carry pays")
		}
		for count := range s.Pays {
			if count < minRunLength || count > m.Reels {
				issues = append(issues, fmt.Sprintf("%s: pay for run of %d is outside [%d,%d]", s.ID, count, minRunLength, m.Reels))
			}
		}
	}

	m.wildIdx, m.hasWild = 0, false
	m.scatterIdx, m.hasScatter = 0, false
	if m.Wild != "" {
		idx, ok := m.index[m.Wild]
		if !ok {
			issues = append(issues, "wild refers to undefined symbol "+m.Wild)
		} else {
			m.wildIdx, m.hasWild = idx, true
		}
	}
	if m.Scatter != "" {
		idx, ok := m.index[m.Scatter]
		if !ok {
			issues = append(issues, "scatter refers to undefined symbol "+m.Scatter)
		} else {
			m.scatterIdx, m.hasScatter = idx, true
		}
	}
	for count, spins := range m.FreeSpinTrigger {
		if count <= 0 || spins <= 0 {
			issues = append(issues, fmt.Sprintf("free-spin trigger %d:%d must be positive", count, spins))
		}
	}
	if len(m.FreeSpinTrigger) > 0 && !m.hasScatter {
		issues = append(issues, "free-spin trigger table requires a scatter symbol")
	}
	if m.FreeSpinMultiplier < 0 {
		issues = append(issues, "free-spin multiplier must not be negative")
	}
	if m.MaxFreeSpins == 0 {
		m.MaxFreeSpins = DefaultMaxFreeSpins
	}

	m.packed = make([][]uint8, len(m.Strips))
	for r, strip := range m.Strips {
		if len(strip) == 0 {
			issues = append(issues, fmt.Sprintf("reel %d strip is empty", r+1))
			continue
		}
		packed := make([]uint8, len(strip))
		for j, id := range strip {
			idx, ok := m.index[id]
			if !ok {
				issues = append(issues, fmt.Sprintf("reel %d references undefined symbol %s", r+1, id))
				continue
			}
			packed[j] = idx
		}
		m.packed[r] = packed
	}

	if len(issues) > 0 {
		return nil, &ConfigError{Issues: issues}
	}

	// a recompiled model must not inherit a previous paying list
	m.paying = nil
	m.pays = make([][]float64, len(m.Symbols))
	for i, s := range m.Symbols {
		m.pays[i] = make([]float64, m.Reels+1)
		for count, pay := range s.Pays {
			m.pays[i][count] = pay
		}
		if len(s.Pays) > 0 {
			m.paying = append(m.paying, uint8(i))
		}
	}
	return &m, nil
}

// Clone deep-copies the model so the optimizer can mutate strips without
// touching the batch that produced them.
func (m *Model) Clone() *Model {
	c := Model{
		Reels:              m.Reels,
		Rows:               m.Rows,
		Wild:               m.Wild,
		Scatter:            m.Scatter,
		FreeSpinMultiplier: m.FreeSpinMultiplier,
		Retrigger:          m.Retrigger,
		MaxFreeSpins:       m.MaxFreeSpins,
	}
	c.Strips = make([]ReelStrip, len(m.Strips))
	for i, s := range m.Strips {
		c.Strips[i] = append(ReelStrip(nil), s...)
	}
	c.Symbols = make([]Symbol, len(m.Symbols))
	for i, s := range m.Symbols {
		pays := make(map[int]float64, len(s.Pays))
		for k, v := range s.Pays {
			pays[k] = v
		}
		c.Symbols[i] = Symbol{ID: s.ID, Tier: s.Tier, Pays: pays}
	}
	c.FreeSpinTrigger = make(map[int]int, len(m.FreeSpinTrigger))
	for k, v := range m.FreeSpinTrigger {
		c.FreeSpinTrigger[k] = v
	}
	out, err := NewModel(c)
	if err != nil {
		// the source model already passed validation
		panic("slot: clone of a valid model failed: " + err.Error())
	}
	return out
}

// MaxPay returns the largest multiplier in a symbol's paytable, used to
// rank symbols by value.
func (s Symbol) MaxPay() float64 {
	max := 0.0
	for _, p := range s.Pays {
		if p > max {
			max = p
		}
	}
	return max
}

// SymbolByID looks a symbol up by id.
func (m *Model) SymbolByID(id string) (Symbol, bool) {
	idx, ok := m.index[id]
	if !ok {
		return Symbol{}, false
	}
	return m.Symbols[idx], true
}
