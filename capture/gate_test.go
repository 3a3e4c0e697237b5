package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("open gate passes immediately", func(t *testing.T) {
		t.Parallel()

		g := newGate()
		require.NoError(t, g.wait(context.Background()))
	})

	t.Run("paused gate blocks until resume", func(t *testing.T) {
		t.Parallel()

		g := newGate()
		g.pause()

		released := make(chan error, 1)
		go func() {
			released <- g.wait(context.Background())
		}()

		select {
		case <-released:
			t.Fatal("wait returned while paused")
		case <-time.After(20 * time.Millisecond):
		}

		g.resume()

		select {
		case err := <-released:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("wait did not wake on resume")
		}
	})

	t.Run("paused gate wakes on cancellation", func(t *testing.T) {
		t.Parallel()

		g := newGate()
		g.pause()

		ctx, cancel := context.WithCancel(context.Background())
		released := make(chan error, 1)
		go func() {
			released <- g.wait(ctx)
		}()

		cancel()

		select {
		case err := <-released:
			require.Error(t, err)
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("wait did not wake on cancellation")
		}
	})

	t.Run("pause and resume are idempotent", func(t *testing.T) {
		t.Parallel()

		g := newGate()
		g.resume()
		g.resume()
		require.NoError(t, g.wait(context.Background()))

		g.pause()
		g.pause()
		g.resume()
		require.NoError(t, g.wait(context.Background()))
	})
}
