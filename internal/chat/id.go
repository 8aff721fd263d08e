package chat

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"
)

const (
	callIDPrefix   = "call_"
	callIDLength   = 6
	callIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// IDGenerator hands out tool call ids.
type IDGenerator interface {
	NextID() string
}

// RandomIDs generates ids of the form call_XXXXXX from crypto/rand.
type RandomIDs struct{}

func (RandomIDs) NextID() string {
	return callIDPrefix + randomAlnum(callIDLength)
}

// randomAlnum draws n characters uniformly from callIDAlphabet. Bytes at or
// above the largest multiple of the alphabet size are rejected so every
// character has the same probability.
func randomAlnum(n int) string {
	const limit = 256 - 256%len(callIDAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("chat: reading random bytes: %v", err))
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, callIDAlphabet[int(b)%len(callIDAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// SequentialIDs yields call_000001, call_000002, ... Safe for concurrent use.
type SequentialIDs struct {
	n atomic.Uint64
}

func (s *SequentialIDs) NextID() string {
	return fmt.Sprintf("%s%06d", callIDPrefix, s.n.Add(1)%1_000_000)
}
