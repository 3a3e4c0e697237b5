package rod

import (
	"testing"

	"github.com/fwojciec/pagecap"
	"github.com/go-rod/rod/lib/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyByName(t *testing.T) {
	t.Parallel()

	t.Run("resolves named keys", func(t *testing.T) {
		t.Parallel()

		k, err := keyByName("ArrowRight")
		require.NoError(t, err)
		assert.Equal(t, input.ArrowRight, k)

		k, err = keyByName("PageDown")
		require.NoError(t, err)
		assert.Equal(t, input.PageDown, k)
	})

	t.Run("resolves single characters by rune", func(t *testing.T) {
		t.Parallel()

		k, err := keyByName("j")
		require.NoError(t, err)
		assert.Equal(t, input.Key('j'), k)
	})

	t.Run("rejects unknown key names", func(t *testing.T) {
		t.Parallel()

		_, err := keyByName("Warp")
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})
}
