package runner

import (
	"math/rand/v2"
	"slices"

	"github.com/fossillogic/fossil-test/types"
)

// Shuffle permutes cases in place with a Fisher-Yates shuffle driven by rng
func Shuffle(cases []*types.Case, rng *rand.Rand) {
	for i := len(cases) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cases[i], cases[j] = cases[j], cases[i]
	}
}

// Reverse reverses cases in place
func Reverse(cases []*types.Case) {
	slices.Reverse(cases)
}
