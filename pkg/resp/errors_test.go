package resp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnectionDropped(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"closed pipe", io.ErrClosedPipe, true},
		{"use of closed connection", net.ErrClosed, true},
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"broken pipe", &net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{"socket deadline", &net.OpError{Op: "read", Err: os.ErrDeadlineExceeded}, false},
		{"protocol desync", &ProtocolError{Reason: "unknown reply type"}, true},
		{"wrapped eof", fmt.Errorf("send: %w", io.EOF), true},
		{"server error reply", &ServerError{Message: "ERR bad command"}, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"context canceled", context.Canceled, false},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsConnectionDropped(tc.err))
		})
	}
}
