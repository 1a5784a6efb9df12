// Package bloom provides probabilistic URL deduplication for bulk imports.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate keeps accidental skips rare for batches of a few
// thousand bookmarks.
const DefaultFalsePositiveRate = 1e-6

// Filter remembers URLs seen during a batch. It is safe for concurrent use.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs with the given false
// positive rate. A zero n is treated as one.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Seen records url and reports whether it was already present.
func (f *Filter) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestAndAddString(url)
}
