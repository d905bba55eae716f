package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	// maxBulkLen matches the server-side proto-max-bulk-len default.
	maxBulkLen = 512 * 1024 * 1024
	// maxArrayLen matches the server-side multibulk element limit.
	maxArrayLen = 1024 * 1024
)

// Reader parses replies (and, on the server side, commands) from a wire
// stream.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadValue reads one value. An error reply is returned as *ServerError
// with the stream still in sync; any other error means the stream can no
// longer be trusted.
func (r *Reader) ReadValue() (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, &ProtocolError{Reason: "empty line"}
	}

	kind, rest := line[0], line[1:]
	switch kind {
	case '+':
		return Value{kind: KindSimple, str: rest}, nil
	case '-':
		return Value{}, &ServerError{Message: string(rest)}
	case ':':
		n, err := r.parseInt(rest)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindInteger, num: n}, nil
	case '$':
		return r.readBulk(rest)
	case '*':
		return r.readArray(rest)
	default:
		return Value{}, &ProtocolError{Reason: fmt.Sprintf("unknown reply type %q", string(kind))}
	}
}

// readLine reads up to CRLF and returns the line without the terminator.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, &ProtocolError{Reason: "line missing CRLF terminator"}
	}
	return line[:len(line)-2], nil
}

func (r *Reader) parseInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, &ProtocolError{Reason: fmt.Sprintf("invalid integer %q", b)}
	}
	return n, nil
}

func (r *Reader) readBulk(header []byte) (Value, error) {
	n, err := r.parseInt(header)
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Value{kind: KindNil}, nil
	}
	if n < 0 || n > maxBulkLen {
		return Value{}, &ProtocolError{Reason: fmt.Sprintf("bulk string length %d out of range", n)}
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return Value{}, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return Value{}, &ProtocolError{Reason: "bulk string missing CRLF terminator"}
	}
	return Value{kind: KindBulk, str: buf[:n]}, nil
}

func (r *Reader) readArray(header []byte) (Value, error) {
	n, err := r.parseInt(header)
	if err != nil {
		return Value{}, err
	}
	if n == -1 {
		return Value{kind: KindNilArray}, nil
	}
	if n < 0 || n > maxArrayLen {
		return Value{}, &ProtocolError{Reason: fmt.Sprintf("array length %d out of range", n)}
	}

	// An element may itself be an error reply (EXEC reports per-command
	// failures that way). The remaining elements must still be consumed
	// to keep the stream in sync, so the first such error is carried to
	// the end of the array before being returned.
	var replyErr error
	arr := make([]Value, 0, n)
	for i := int64(0); i < n; i++ {
		v, err := r.ReadValue()
		if err != nil {
			var srvErr *ServerError
			if errors.As(err, &srvErr) {
				if replyErr == nil {
					replyErr = err
				}
				continue
			}
			return Value{}, err
		}
		arr = append(arr, v)
	}
	if replyErr != nil {
		return Value{}, replyErr
	}
	return Value{kind: KindArray, arr: arr}, nil
}
