package toolcall

import "strings"

// Buffer accumulates streamed text fragments for one generation turn.
// It is append-only and not safe for concurrent use.
type Buffer struct {
	text strings.Builder
}

// NewBuffer returns a buffer pre-filled with fragments.
func NewBuffer(fragments ...string) *Buffer {
	b := &Buffer{}
	for _, f := range fragments {
		b.Append(f)
	}
	return b
}

func (b *Buffer) Append(fragment string) {
	b.text.WriteString(fragment)
}

// String returns the concatenation of all fragments.
func (b *Buffer) String() string { return b.text.String() }

func (b *Buffer) Len() int { return b.text.Len() }

func (b *Buffer) Reset() {
	b.text.Reset()
}
