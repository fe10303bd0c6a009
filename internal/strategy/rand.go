package strategy

import (
	"math/rand"
	"sync"
)

// stratRng is the package-level random source used by the scatter rule.
// When nil, rngIntn delegates to the global math/rand default. Replays run
// matches concurrently, so access is guarded.
var (
	rngMu    sync.Mutex
	stratRng *rand.Rand
)

// SeedRng sets a deterministic random source for reproducible turns.
func SeedRng(seed int64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	stratRng = rand.New(rand.NewSource(seed))
}

// ResetRng reverts to the default (non-deterministic) global random source.
func ResetRng() {
	rngMu.Lock()
	defer rngMu.Unlock()
	stratRng = nil
}

func rngIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	if stratRng != nil {
		return stratRng.Intn(n)
	}
	return rand.Intn(n)
}
