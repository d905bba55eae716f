package connection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilitySignalStartsSet(t *testing.T) {
	s := NewAvailabilitySignal()
	assert.True(t, s.IsSet())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestAvailabilitySignalWakesAllWaiters(t *testing.T) {
	s := NewAvailabilitySignal()
	s.Reset()
	require.False(t, s.IsSet())

	const waiters = 8
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Wait(context.Background())
		}()
	}

	s.Set()
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestAvailabilitySignalResetBlocksNewWaiters(t *testing.T) {
	s := NewAvailabilitySignal()
	s.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	s.Set()
	require.NoError(t, s.Wait(context.Background()))
}

func TestAvailabilitySignalIdempotent(t *testing.T) {
	s := NewAvailabilitySignal()

	s.Set()
	s.Set()
	assert.True(t, s.IsSet())

	s.Reset()
	s.Reset()
	assert.False(t, s.IsSet())

	s.Set()
	assert.True(t, s.IsSet())
}
