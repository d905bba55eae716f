package connection

import (
	"context"
	"sync"
)

// AvailabilitySignal is a broadcast flag that callers wait on while the
// connection is being re-established. It is reset when a reconnection
// starts and set when the effort concludes, whether with a fresh session
// or with the manager giving up. Any number of goroutines may wait; all
// of them wake on Set and then re-inspect the connection state.
//
// A new signal starts set, matching a manager that starts connected.
type AvailabilitySignal struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

func NewAvailabilitySignal() *AvailabilitySignal {
	ch := make(chan struct{})
	close(ch)
	return &AvailabilitySignal{set: true, ch: ch}
}

// Set marks the signal and wakes every waiter. Setting a set signal is a
// no-op.
func (s *AvailabilitySignal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		return
	}
	s.set = true
	close(s.ch)
}

// Reset clears the signal so that subsequent Wait calls block. Resetting
// a cleared signal is a no-op.
func (s *AvailabilitySignal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return
	}
	s.set = false
	s.ch = make(chan struct{})
}

// IsSet reports whether the signal is currently set.
func (s *AvailabilitySignal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.set
}

// Wait blocks until the signal is set or ctx is done. A Reset that
// happens after Wait has observed a set signal does not block it
// retroactively; callers re-check state after waking.
func (s *AvailabilitySignal) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
