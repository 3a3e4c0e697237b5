package pagecap_test

import (
	"testing"

	"github.com/fwojciec/pagecap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects zero total pages", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.TotalPages = 0

		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})

	t.Run("rejects negative page delay", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.PageDelay = -1

		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})

	t.Run("rejects zero retry attempts", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.RetryAttempts = 0

		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})

	t.Run("rejects jpeg quality out of range", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.Encoding = pagecap.ImageEncoding{Format: pagecap.FormatJPEG, Quality: 101}

		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})

	t.Run("accepts jpeg with quality", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.Encoding = pagecap.ImageEncoding{Format: pagecap.FormatJPEG, Quality: 85}

		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects degenerate clip", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.Clip = &pagecap.Clip{X: 10, Y: 10, Width: 0, Height: 100}

		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})

	t.Run("rejects empty advance key", func(t *testing.T) {
		t.Parallel()

		cfg := pagecap.DefaultConfig()
		cfg.AdvanceKey = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})
}

func TestImageEncoding_Lossy(t *testing.T) {
	t.Parallel()

	assert.False(t, pagecap.ImageEncoding{Format: pagecap.FormatPNG}.Lossy())
	assert.True(t, pagecap.ImageEncoding{Format: pagecap.FormatJPEG, Quality: 80}.Lossy())
}
