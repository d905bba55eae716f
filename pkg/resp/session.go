package resp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/logger"
)

// maxInFlight bounds how many dispatches may await replies at once.
// Writers past the bound block until the read loop catches up.
const maxInFlight = 1024

// SessionConfig carries what a Session needs beyond the dialed conn.
type SessionConfig struct {
	// Username and Password are sent with AUTH during the handshake when
	// Password is set.
	Username string
	Password string

	// Database is SELECTed during the handshake when non-zero.
	Database int

	Logger logger.Logger
}

// Session multiplexes commands from any number of goroutines over one
// conn. Replies carry no request IDs; they are matched to commands by
// order, so the write path enqueues each dispatch under the same lock
// that serializes its bytes onto the wire.
//
// A Session that observes a transport or parse failure shuts itself
// down, failing every in-flight and future dispatch. It never recovers;
// reconnection is the manager's job.
type Session struct {
	conn   net.Conn
	reader *Reader
	writer *Writer

	// writeMu serializes writes and pending enqueues so that queue order
	// always matches wire order.
	writeMu sync.Mutex
	pending chan *pendingReply

	closeOnce  sync.Once
	closeChan  chan struct{}
	closeError error

	database int
	logger   logger.Logger
}

type pendingReply struct {
	// skip replies are consumed and discarded before take replies are
	// collected for the caller.
	skip int
	take int
	// ch has capacity 1 so a reply arriving after the caller gave up is
	// parked here instead of blocking the read loop.
	ch chan replyResult
}

type replyResult struct {
	vals []Value
	err  error
}

// NewSession wraps an established conn, starts its read loop, and runs
// the AUTH/SELECT handshake per cfg. On handshake failure the conn is
// closed and an error returned.
func NewSession(ctx context.Context, conn net.Conn, cfg SessionConfig) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.New(slog.NewTextHandler(os.Stdout, nil))
	}

	s := &Session{
		conn:      conn,
		reader:    NewReader(conn),
		writer:    NewWriter(conn),
		pending:   make(chan *pendingReply, maxInFlight),
		closeChan: make(chan struct{}),
		database:  cfg.Database,
		logger:    cfg.Logger,
	}

	go s.readLoop()

	if err := s.handshake(ctx, cfg); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	return s, nil
}

func (s *Session) handshake(ctx context.Context, cfg SessionConfig) error {
	if cfg.Password != "" {
		var auth Command
		if cfg.Username != "" {
			auth = NewCommand("AUTH", cfg.Username, cfg.Password)
		} else {
			auth = NewCommand("AUTH", cfg.Password)
		}
		if _, err := s.Send(ctx, auth); err != nil {
			return err
		}
	}
	if cfg.Database != 0 {
		if _, err := s.Send(ctx, NewCommand("SELECT", cfg.Database)); err != nil {
			return err
		}
	}
	return nil
}

// Database returns the database index this session was configured with.
// A SELECT dispatched later does not change it.
func (s *Session) Database() int {
	return s.database
}

// Send writes cmd and waits for its reply. A server error reply comes
// back as *ServerError with the session intact. If ctx expires first,
// the call returns ctx.Err() while the reply slot stays queued, so the
// late reply is discarded without desyncing later dispatches.
func (s *Session) Send(ctx context.Context, cmd Command) (Value, error) {
	vals, err := s.roundTrip(ctx, []Command{cmd}, 0, 1)
	if err != nil {
		return Value{}, err
	}
	return vals[0], nil
}

// SendBatch writes cmds back to back in one flush, reads offset+count
// replies, and returns the last count of them. The leading offset
// replies cover bookkeeping commands such as MULTI and the QUEUED
// acknowledgements of a transaction.
func (s *Session) SendBatch(ctx context.Context, cmds []Command, offset, count int) ([]Value, error) {
	if len(cmds) == 0 {
		return []Value{}, nil
	}
	if offset < 0 || count < 0 {
		return nil, fmt.Errorf("resp.Session offset and count must not be negative, got %d and %d", offset, count)
	}
	return s.roundTrip(ctx, cmds, offset, count)
}

func (s *Session) roundTrip(ctx context.Context, cmds []Command, skip, take int) ([]Value, error) {
	select {
	case <-s.closeChan:
		return nil, s.closeError
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	pr := &pendingReply{skip: skip, take: take, ch: make(chan replyResult, 1)}

	if err := s.write(cmds, pr); err != nil {
		return nil, err
	}

	select {
	case res := <-pr.ch:
		return res.vals, res.err
	case <-s.closeChan:
		// The session died after the write. Prefer a reply the read loop
		// managed to deliver first.
		select {
		case res := <-pr.ch:
			return res.vals, res.err
		default:
			return nil, s.closeError
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) write(cmds []Command, pr *pendingReply) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.closeChan:
		return s.closeError
	default:
	}

	for _, cmd := range cmds {
		if err := s.writer.WriteCommand(cmd); err != nil {
			s.fail(err)
			return err
		}
	}
	if err := s.writer.Flush(); err != nil {
		s.fail(err)
		return err
	}

	s.pending <- pr
	return nil
}

func (s *Session) readLoop() {
	for {
		select {
		case <-s.closeChan:
			return
		case pr := <-s.pending:
			if !s.serve(pr) {
				return
			}
		}
	}
}

// serve reads the replies owed to one dispatch. It reports false once
// the stream has failed and the loop should exit.
func (s *Session) serve(pr *pendingReply) bool {
	vals := make([]Value, 0, pr.take)
	var replyErr error
	for i := 0; i < pr.skip+pr.take; i++ {
		val, err := s.reader.ReadValue()
		if err != nil {
			var srvErr *ServerError
			if errors.As(err, &srvErr) {
				// Error reply: the stream is still in sync. Keep
				// consuming the remaining replies before reporting it.
				if replyErr == nil {
					replyErr = err
				}
				continue
			}
			pr.ch <- replyResult{err: err}
			s.fail(err)
			return false
		}
		if i >= pr.skip {
			vals = append(vals, val)
		}
	}

	if replyErr != nil {
		pr.ch <- replyResult{err: replyErr}
		return true
	}
	pr.ch <- replyResult{vals: vals}
	return true
}

// fail shuts the session down from the inside, recording err as the
// terminal error for in-flight and future dispatches.
func (s *Session) fail(err error) {
	_ = s.shutdown(err)
}

// Close shuts the session down. In-flight dispatches fail with
// net.ErrClosed. Safe to call concurrently and repeatedly.
func (s *Session) Close() error {
	return s.shutdown(net.ErrClosed)
}

func (s *Session) shutdown(terminal error) error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.closeError = terminal
		close(s.closeChan)
		closeErr = s.conn.Close()
		s.drainPending(terminal)
		s.logger.Debug("session closed", "error", terminal)
	})
	return closeErr
}

func (s *Session) drainPending(err error) {
	for {
		select {
		case pr := <-s.pending:
			pr.ch <- replyResult{err: err}
		default:
			return
		}
	}
}
