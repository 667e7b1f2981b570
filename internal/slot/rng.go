package slot

import "math/rand/v2"

// NewRand builds a seeded PCG generator. All randomness of a batch flows
// from one seed so that single-threaded runs replay bit for bit.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}
