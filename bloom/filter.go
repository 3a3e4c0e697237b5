// Package bloom provides probabilistic repeat detection for frame
// content hashes using Bloom filters.
package bloom

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
)

// FrameFilter tracks frame content hashes seen during a capture run.
// It answers "has this frame appeared before?" with possible false
// positives and no false negatives, so a hit is advisory only.
type FrameFilter struct {
	f *bloom.BloomFilter
}

// NewFrameFilter creates a filter sized for n expected frames with the
// given false positive rate.
func NewFrameFilter(n uint, fpRate float64) *FrameFilter {
	return &FrameFilter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a frame content hash.
func (f *FrameFilter) Add(hash uint64) {
	f.f.Add(hashKey(hash))
}

// Seen reports whether the hash might have been recorded before.
func (f *FrameFilter) Seen(hash uint64) bool {
	return f.f.Test(hashKey(hash))
}

// EstimatedCount returns the approximate number of distinct frames.
func (f *FrameFilter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

func hashKey(hash uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], hash)
	return key[:]
}
