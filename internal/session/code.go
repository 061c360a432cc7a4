package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeGenerator produces candidate session codes.
type CodeGenerator func() string

// NewSessionCode returns a human-shareable code such as LAB-1718000000000-K3ZQ7A.
func NewSessionCode() string {
	return fmt.Sprintf("LAB-%d-%s", time.Now().UnixMilli(), randomSuffix(6))
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is gone
			panic(fmt.Sprintf("session code entropy: %v", err))
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b)
}
