package chat

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var callIDPattern = regexp.MustCompile(`^call_[A-Za-z0-9]{6}$`)

func TestRandomIDs_FormatAndUniqueness(t *testing.T) {
	t.Parallel()
	var gen RandomIDs
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := gen.NextID()
		require.Regexp(t, callIDPattern, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestRandomAlnum_UsesWholeAlphabet(t *testing.T) {
	t.Parallel()
	counts := make(map[rune]int)
	for _, r := range randomAlnum(20000) {
		counts[r]++
	}
	assert.Len(t, counts, len(callIDAlphabet))
}

func TestSequentialIDs(t *testing.T) {
	t.Parallel()
	var gen SequentialIDs
	assert.Equal(t, "call_000001", gen.NextID())
	assert.Equal(t, "call_000002", gen.NextID())
	assert.Regexp(t, callIDPattern, gen.NextID())
}
