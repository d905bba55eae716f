// Package connection maintains one logical connection to the server. A
// Manager hands out the current multiplexed session, replaces it in the
// background when the transport drops, and makes concurrent dispatchers
// wait on a shared availability signal instead of racing to reconnect.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/constants"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/logger"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// Manager owns the logical connection. All state transitions happen
// under mu; the lock is never held while dialing, handshaking, or
// waiting for replies.
type Manager struct {
	// backend carries the dial configuration and the availability
	// signal. It is shared with the reconnection goroutine and outlives
	// individual sessions.
	backend *Backend

	mu      sync.Mutex
	state   State
	session *resp.Session

	// closed is orthogonal to state: a closed manager refuses dispatch
	// regardless of how the connection was doing at close time.
	closed bool

	// lifetimeCtx tears down a running reconnection when the manager is
	// closed. Reconnection is otherwise detached from dispatch contexts,
	// so an effort keeps running even when the caller that triggered it
	// gives up waiting.
	lifetimeCtx    context.Context
	lifetimeCancel context.CancelFunc

	responseTimeout time.Duration
	logger          logger.Logger
}

// NewManager connects to the server and returns a Manager holding the
// established session. The initial connection runs under the configured
// retry strategy; if it gives up, construction fails and the caller
// decides what to do next, typically exiting with the configuration
// error that no amount of retrying would fix.
func NewManager(ctx context.Context, config *Config) (*Manager, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backend := newBackend(config)

	sess, err := backend.connectWithRetry(ctx)
	if err != nil {
		return nil, err
	}

	lifetimeCtx, lifetimeCancel := context.WithCancel(context.Background())
	m := &Manager{
		backend:         backend,
		state:           StateConnected,
		session:         sess,
		lifetimeCtx:     lifetimeCtx,
		lifetimeCancel:  lifetimeCancel,
		responseTimeout: config.ResponseTimeout,
		logger:          config.Logger,
	}

	m.logger.Debug("connection.Manager established connection", "addr", config.Addr, "database", config.Database)

	return m, nil
}

// GetSession returns the current session, waiting out an in-progress
// reconnection if there is one. It fails fast with ErrConnectionLost
// once the manager is Disconnected, and with ErrClosed after Close.
func (m *Manager) GetSession(ctx context.Context) (*resp.Session, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, constants.ErrClosed
		}
		switch m.state {
		case StateConnected:
			sess := m.session
			m.mu.Unlock()
			return sess, nil
		case StateReconnecting:
			m.mu.Unlock()
		case StateDisconnected:
			m.mu.Unlock()
			return nil, constants.ErrConnectionLost
		default:
			m.mu.Unlock()
			return nil, fmt.Errorf("BUG: connection.Manager in state %v", StateUnknown)
		}

		// Wait outside the lock for the reconnection outcome, then
		// re-inspect the state.
		if err := m.backend.signal.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Reconnect replaces a lost session. Only the first caller after a drop
// starts the background attempt: the manager transitions to
// Reconnecting, the availability signal is reset, and one goroutine
// dials under the retry strategy. Every other caller, and Reconnect
// itself, waits on the signal via GetSession for the committed outcome.
func (m *Manager) Reconnect(ctx context.Context) (*resp.Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, constants.ErrClosed
	}

	if m.state != StateConnected {
		// A reconnection already started or already failed; there is
		// nothing else to do but wait for or report its outcome.
		m.mu.Unlock()
		return m.GetSession(ctx)
	}

	old := m.session
	m.session = nil
	m.backend.signal.Reset()
	if err := m.transitionToLocked(StateReconnecting); err != nil {
		m.logger.Error("BUG: connection.Manager failed to transition to reconnecting state", "error", err)
	}
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	go m.runReconnect()

	return m.GetSession(ctx)
}

// runReconnect dials the replacement session and commits the outcome.
// It is tied to the manager's lifetime rather than to the dispatch that
// triggered it, so the effort continues when that caller goes away.
func (m *Manager) runReconnect() {
	m.logger.Info("connection.Manager is reconnecting")

	sess, err := m.backend.connectWithRetry(m.lifetimeCtx)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Wake waiters only once the outcome below is committed.
	defer m.backend.signal.Set()

	if m.closed {
		if sess != nil {
			_ = sess.Close()
		}
		if stateErr := m.transitionToLocked(StateDisconnected); stateErr != nil {
			m.logger.Error("BUG: connection.Manager failed to transition to disconnected state", "error", stateErr)
		}
		return
	}

	if err != nil {
		m.logger.Error("connection.Manager failed to reconnect", "error", err)
		if stateErr := m.transitionToLocked(StateDisconnected); stateErr != nil {
			m.logger.Error("BUG: connection.Manager failed to transition to disconnected state", "error", stateErr)
		}
		return
	}

	m.session = sess
	if stateErr := m.transitionToLocked(StateConnected); stateErr != nil {
		m.logger.Error("BUG: connection.Manager failed to transition to connected state", "error", stateErr)
	}
}

// Send dispatches one command. The reply wait is bounded by the response
// timeout; an expiry fails the call with ErrTimeout and nothing else: no
// state change, no reconnect, the command may still have executed. If
// the session turns out to be dropped, Send reconnects and retries the
// command exactly once on the fresh session.
func (m *Manager) Send(ctx context.Context, cmd resp.Command) (resp.Value, error) {
	sess, err := m.GetSession(ctx)
	if err != nil {
		return resp.Value{}, err
	}

	val, err := m.sendOnce(ctx, sess, cmd)
	if err != nil && resp.IsConnectionDropped(err) {
		sess, err = m.Reconnect(ctx)
		if err != nil {
			return resp.Value{}, err
		}
		return m.sendOnce(ctx, sess, cmd)
	}
	return val, err
}

// SendBatch dispatches cmds as one pipeline, reads offset+count replies,
// and returns the last count of them. On a dropped session the whole
// pipeline is resent exactly once, mirroring Send.
func (m *Manager) SendBatch(ctx context.Context, cmds []resp.Command, offset, count int) ([]resp.Value, error) {
	sess, err := m.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	vals, err := m.sendBatchOnce(ctx, sess, cmds, offset, count)
	if err != nil && resp.IsConnectionDropped(err) {
		sess, err = m.Reconnect(ctx)
		if err != nil {
			return nil, err
		}
		return m.sendBatchOnce(ctx, sess, cmds, offset, count)
	}
	return vals, err
}

func (m *Manager) sendOnce(ctx context.Context, sess *resp.Session, cmd resp.Command) (resp.Value, error) {
	sendCtx, cancel := m.withResponseTimeout(ctx)
	defer cancel()

	val, err := sess.Send(sendCtx, cmd)
	return val, m.convertTimeout(ctx, err)
}

func (m *Manager) sendBatchOnce(ctx context.Context, sess *resp.Session, cmds []resp.Command, offset, count int) ([]resp.Value, error) {
	sendCtx, cancel := m.withResponseTimeout(ctx)
	defer cancel()

	vals, err := sess.SendBatch(sendCtx, cmds, offset, count)
	return vals, m.convertTimeout(ctx, err)
}

func (m *Manager) withResponseTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.responseTimeout > 0 {
		return context.WithTimeout(ctx, m.responseTimeout)
	}
	return ctx, func() {}
}

// convertTimeout maps an expiry of the manager's own response deadline
// to ErrTimeout. The caller's own cancellation or deadline passes
// through untouched.
func (m *Manager) convertTimeout(callerCtx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && callerCtx.Err() == nil {
		return fmt.Errorf("%w waiting for reply after %v", constants.ErrTimeout, m.responseTimeout)
	}
	return err
}

// CurrentDatabase reports the database index of the current session, as
// configured at connection time. While no session is available it
// reports UnknownDatabase.
func (m *Manager) CurrentDatabase() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateConnected && m.session != nil {
		return m.session.Database()
	}
	return constants.UnknownDatabase
}

// State reports the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// IsClosed returns true if this manager is closed. Once closed, it
// cannot be used to dispatch commands.
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Close shuts the manager down: the current session is closed, a running
// reconnection is cancelled, and waiters are woken so they observe the
// closed flag. Closing an already closed manager is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sess := m.session
	m.session = nil
	// Wake any waiter so it can observe the closed flag.
	m.backend.signal.Set()
	m.mu.Unlock()

	m.lifetimeCancel()
	m.logger.Debug("connection.Manager closed")

	if sess != nil {
		return sess.Close()
	}
	return nil
}

func (m *Manager) transitionToLocked(newState State) error {
	if err := m.state.validateTransitionTo(newState); err != nil {
		return err
	}

	m.state = newState
	m.logger.Debug("connection.Manager state transitioned", "new_state", newState)

	return nil
}
