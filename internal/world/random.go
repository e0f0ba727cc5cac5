package world

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicSeedValue derives a stable seed for label from the root seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// RandomLine picks one of lines, or "" when there are none.
func RandomLine(rng *rand.Rand, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	if rng == nil {
		rng = NewDeterministicRNG(DefaultSeed, "lines")
	}
	return lines[rng.Intn(len(lines))]
}
