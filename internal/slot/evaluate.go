package slot

// SymbolWin is one symbol's contribution to a window, already multiplied
// across its ways.
type SymbolWin struct {
	Symbol string  `json:"symbol"`
	Count  int     `json:"count"`
	Ways   int     `json:"ways"`
	Pay    float64 `json:"pay"`
	Win    float64 `json:"win"`
}

// WinResult is the full evaluation of one window.
type WinResult struct {
	Total float64     `json:"total"`
	Wins  []SymbolWin `json:"wins,omitempty"`
}

// Evaluator scores windows against one model using the ways-to-win rule.
// It keeps a per-reel scratch buffer, so one evaluator serves one
// goroutine.
type Evaluator struct {
	m      *Model
	counts []int
}

func NewEvaluator(m *Model) *Evaluator {
	return &Evaluator{m: m, counts: make([]int, m.Reels)}
}

// Evaluate sums ways wins over all paying symbols. For each symbol the
// run grows reel by reel from the left while the reel shows the symbol
// or a wild; the longest paid run length wins once, with the ways count
// being the product of per-reel matches over that run.
func (e *Evaluator) Evaluate(o *Outcome) WinResult {
	var res WinResult
	m := e.m
	for _, sym := range m.paying {
		run := e.runLength(o, sym)
		if run < minRunLength {
			continue
		}
		pays := m.pays[sym]
		for length := run; length >= minRunLength; length-- {
			pay := pays[length]
			if pay <= 0 {
				continue
			}
			ways := 1
			for r := 0; r < length; r++ {
				ways *= e.counts[r]
			}
			win := pay * float64(ways)
			res.Total += win
			res.Wins = append(res.Wins, SymbolWin{
				Symbol: m.Symbols[sym].ID,
				Count:  length,
				Ways:   ways,
				Pay:    pay,
				Win:    win,
			})
			break
		}
	}
	return res
}

// Total is the breakdown-free form used by the simulation hot loop.
func (e *Evaluator) Total(o *Outcome) float64 {
	total := 0.0
	m := e.m
	for _, sym := range m.paying {
		run := e.runLength(o, sym)
		if run < minRunLength {
			continue
		}
		pays := m.pays[sym]
		for length := run; length >= minRunLength; length-- {
			if pays[length] <= 0 {
				continue
			}
			ways := 1
			for r := 0; r < length; r++ {
				ways *= e.counts[r]
			}
			total += pays[length] * float64(ways)
			break
		}
	}
	return total
}

// runLength walks reels left to right counting symbol-or-wild matches
// per reel into e.counts, stopping at the first reel without a match.
func (e *Evaluator) runLength(o *Outcome, sym uint8) int {
	m := e.m
	run := 0
	for r := 0; r < m.Reels; r++ {
		n := 0
		base := r * o.rows
		for w := 0; w < o.rows; w++ {
			c := o.cells[base+w]
			if c == sym || (m.hasWild && c == m.wildIdx) {
				n++
			}
		}
		if n == 0 {
			break
		}
		e.counts[r] = n
		run++
	}
	return run
}
