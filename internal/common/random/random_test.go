package random

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoIntNStaysInRange(t *testing.T) {
	src := Crypto()
	for range 1000 {
		v := src.IntN(7)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 7)
	}
}

func TestCryptoIntNPanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { Crypto().IntN(0) })
}

func TestShuffleKeepsElements(t *testing.T) {
	src := rand.New(rand.NewPCG(1, 2))
	ids := []string{"a", "b", "c", "d", "e"}

	Shuffle(src, len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, ids)
}

func TestShuffleIsUnbiased(t *testing.T) {
	src := rand.New(rand.NewPCG(7, 11))
	counts := make(map[[3]int]int)

	const trials = 60000
	for range trials {
		p := [3]int{0, 1, 2}
		Shuffle(src, 3, func(i, j int) { p[i], p[j] = p[j], p[i] })
		counts[p]++
	}

	require.Len(t, counts, 6)
	for perm, n := range counts {
		assert.InDelta(t, trials/6, n, trials/6*0.1, "permutation %v", perm)
	}
}
