package storage

import (
	"sync"

	"github.com/onwhisper/guild-pulse/internal/types"
)

// Buffer is the staging area between the collector and the flusher.
// Samples are held in insertion order and drained oldest-first.
//
// Both workers run on their own goroutines, so every access takes the
// mutex; the critical sections contain no I/O, only the slice operation.
type Buffer struct {
	data []*types.Sample
	mu   sync.Mutex
}

// NewBuffer returns an empty sample buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds one or more samples to the tail of the buffer.
func (b *Buffer) Append(samples ...*types.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, samples...)
}

// DrainUpTo removes and returns up to n of the oldest samples.
// The remainder stays buffered. A drained sample is never returned twice.
func (b *Buffer) DrainUpTo(n int) []*types.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || len(b.data) == 0 {
		return nil
	}
	if n > len(b.data) {
		n = len(b.data)
	}

	drained := make([]*types.Sample, n)
	copy(drained, b.data[:n])
	rest := len(b.data) - n
	copy(b.data, b.data[n:])
	for i := rest; i < len(b.data); i++ {
		b.data[i] = nil
	}
	b.data = b.data[:rest]

	return drained
}

// Len returns the current number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.data)
}
