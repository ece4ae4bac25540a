/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package random

import (
	"crypto/rand"
	"math/big"
)

// Source draws uniform integers in [0, n). *math/rand/v2.Rand satisfies it,
// which is what tests use for reproducible draws.
type Source interface {
	IntN(n int) int
}

type cryptoSource struct{}

// Crypto returns a Source backed by crypto/rand, so draws cannot be predicted
// by players watching earlier rounds.
func Crypto() Source {
	return cryptoSource{}
}

func (cryptoSource) IntN(n int) int {
	if n <= 0 {
		panic("random: invalid argument to IntN")
	}

	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return int(v.Int64())
}

// Shuffle permutes n elements with Fisher-Yates; every permutation is equally
// likely as long as src is uniform.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, src.IntN(i+1))
	}
}
