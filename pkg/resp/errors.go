package resp

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrNil is returned by Value accessors when the server replied with a
// null bulk string or null array, e.g. GET on a missing key.
var ErrNil = errors.New("nil reply")

// ServerError is an error reply from the server. It is a normal protocol
// outcome: the connection stays usable and the command is not retried.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ProtocolError reports wire data that could not be parsed. Replies are
// matched to commands by order, so once the stream desyncs it cannot be
// trusted; the session shuts down and the error classifies as dropped.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// IsConnectionDropped reports whether err means the transport is severed
// and the command may be retried on a fresh connection. Server error
// replies and timeouts are not dropped connections.
func IsConnectionDropped(err error) bool {
	if err == nil {
		return false
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return true
	}

	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Deadline expiries on the socket are timeouts, not drops.
		return !opErr.Timeout()
	}

	return false
}
