package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomIndex returns a uniformly distributed index in [0, n).
func RandomIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("failed to read random: %v", err))
	}
	return int(i.Int64())
}
