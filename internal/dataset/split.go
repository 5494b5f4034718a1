package dataset

import (
	"math"
	"math/rand"
)

const (
	DefaultTestRatio = 0.2
	DefaultSeed      = 42
)

// Split shuffles samples with a fixed seed and holds out testRatio of them
// for testing. The same input and seed always give the same split.
func Split(samples []Sample, testRatio float64, seed int64) (train, test []Sample) {
	shuffled := append([]Sample(nil), samples...)
	rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testRatio = math.Max(0, math.Min(1, testRatio))
	nTest := int(math.Ceil(float64(len(shuffled)) * testRatio))
	return shuffled[nTest:], shuffled[:nTest]
}
