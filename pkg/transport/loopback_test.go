package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackDelivery(t *testing.T) {
	a, b := NewLoopbackPair()
	defer a.Close()

	require.NoError(t, a.Send([]byte{1, 2, 3}))
	require.NoError(t, a.Send([]byte{4}))

	got, err := b.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	// Order is preserved.
	got, err = b.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, got)
}

func TestLoopbackTimeout(t *testing.T) {
	a, _ := NewLoopbackPair()
	defer a.Close()

	_, err := a.Receive(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLoopbackClose(t *testing.T) {
	a, b := NewLoopbackPair()

	done := make(chan error, 1)
	go func() {
		_, err := b.Receive(0)
		done <- err
	}()

	require.NoError(t, a.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked receive did not observe close")
	}

	assert.ErrorIs(t, a.Send([]byte{1}), ErrClosed)
	// Close is idempotent across both endpoints.
	require.NoError(t, b.Close())
}

func TestLoopbackSendCopiesBuffer(t *testing.T) {
	a, b := NewLoopbackPair()
	defer a.Close()

	buf := []byte{7, 7, 7}
	require.NoError(t, a.Send(buf))
	buf[0] = 0

	got, err := b.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 7}, got)
}
