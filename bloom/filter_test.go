package bloom_test

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagecap/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFrameFilter_AddAndSeen(t *testing.T) {
	t.Parallel()

	f := bloom.NewFrameFilter(1000, 0.01)

	h1 := xxhash.Sum64String("frame one content")
	h2 := xxhash.Sum64String("frame two content")

	// Hash not yet added should return false
	assert.False(t, f.Seen(h1))

	f.Add(h1)

	// Now it should return true
	assert.True(t, f.Seen(h1))

	// A different hash should still return false
	assert.False(t, f.Seen(h2))
}

func TestFrameFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFrameFilter(1000, 0.01)

	// Empty filter should have count near 0
	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Add(xxhash.Sum64String("frame one"))
	f.Add(xxhash.Sum64String("frame two"))
	f.Add(xxhash.Sum64String("frame three"))

	// Estimated count should be approximately 3
	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFrameFilter_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	f := bloom.NewFrameFilter(1000, 0.01)

	h := xxhash.Sum64String("repeated frame")

	f.Add(h)
	countAfterFirst := f.EstimatedCount()

	// Adding the same hash multiple times should not change the filter
	f.Add(h)
	f.Add(h)
	f.Add(h)

	assert.Equal(t, countAfterFirst, f.EstimatedCount())
	assert.True(t, f.Seen(h))
}

func TestFrameFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 10000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFrameFilter(numItems, fpRate)

	// Add 10k frame hashes
	for i := range numItems {
		f.Add(uint64(i) * 2654435761)
	}

	// Probe with 10k hashes that were NOT added
	falsePositives := 0
	for i := range testProbes {
		if f.Seen(uint64(numItems+i)*2654435761 + 1) {
			falsePositives++
		}
	}

	// False positive rate should be approximately 1%
	// Allow up to 2% to account for statistical variance
	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}
