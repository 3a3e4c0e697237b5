package pagecap_test

import (
	"testing"

	"github.com/fwojciec/pagecap"
	"github.com/stretchr/testify/assert"
)

func TestTruncateURL(t *testing.T) {
	t.Parallel()

	t.Run("returns URL unchanged when shorter than max", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "https://x.com", pagecap.TruncateURL("https://x.com", 50))
	})

	t.Run("truncates with ellipsis when longer than max", func(t *testing.T) {
		t.Parallel()
		url := "https://example.com/very/long/path/to/documentation"
		result := pagecap.TruncateURL(url, 20)
		assert.Equal(t, ".../to/documentation", result)
		assert.Len(t, result, 20)
	})

	t.Run("returns URL unchanged when exactly max length", func(t *testing.T) {
		t.Parallel()
		url := "https://example.com"
		assert.Equal(t, url, pagecap.TruncateURL(url, len(url)))
	})

	t.Run("returns empty string when maxLen is zero", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, pagecap.TruncateURL("https://example.com", 0))
	})

	t.Run("returns empty string when maxLen is negative", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, pagecap.TruncateURL("https://example.com", -1))
	})

	t.Run("returns prefix of URL when maxLen is very small", func(t *testing.T) {
		t.Parallel()
		// When maxLen < 4, we can't fit "..." prefix, so return URL prefix
		assert.Equal(t, "htt", pagecap.TruncateURL("https://example.com", 3))
		assert.Equal(t, "h", pagecap.TruncateURL("https://example.com", 1))
	})
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	t.Run("formats bytes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "0 B", pagecap.FormatBytes(0))
		assert.Equal(t, "512 B", pagecap.FormatBytes(512))
	})

	t.Run("formats kilobytes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "1.0 KB", pagecap.FormatBytes(1024))
		assert.Equal(t, "1.5 KB", pagecap.FormatBytes(1536))
	})

	t.Run("formats megabytes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "1.0 MB", pagecap.FormatBytes(1024*1024))
		assert.Equal(t, "2.5 MB", pagecap.FormatBytes(2*1024*1024+512*1024))
	})

	t.Run("formats gigabytes", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "1.0 GB", pagecap.FormatBytes(1024*1024*1024))
	})
}
