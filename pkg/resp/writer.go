package resp

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Writer serializes commands (and, on the server side, replies) to a
// wire stream. Writes are buffered until Flush.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteCommand buffers cmd as an array of bulk strings.
func (w *Writer) WriteCommand(cmd Command) error {
	args := cmd.Args()
	if len(args) == 0 {
		return errors.New("empty command")
	}
	if err := w.writeHeader('*', int64(len(args))); err != nil {
		return err
	}
	for _, arg := range args {
		if err := w.writeBulk(arg); err != nil {
			return err
		}
	}
	return nil
}

// WriteValue buffers v in its wire form.
func (w *Writer) WriteValue(v Value) error {
	switch v.kind {
	case KindNil:
		_, err := w.w.WriteString("$-1\r\n")
		return err
	case KindNilArray:
		_, err := w.w.WriteString("*-1\r\n")
		return err
	case KindSimple:
		return w.writeLine('+', string(v.str))
	case KindInteger:
		return w.writeLine(':', strconv.FormatInt(v.num, 10))
	case KindBulk:
		if err := w.writeHeader('$', int64(len(v.str))); err != nil {
			return err
		}
		if _, err := w.w.Write(v.str); err != nil {
			return err
		}
		_, err := w.w.WriteString("\r\n")
		return err
	case KindArray:
		if err := w.writeHeader('*', int64(len(v.arr))); err != nil {
			return err
		}
		for _, el := range v.arr {
			if err := w.WriteValue(el); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New("unknown value kind")
	}
}

// WriteError buffers an error reply.
func (w *Writer) WriteError(msg string) error {
	return w.writeLine('-', msg)
}

// WriteArrayHeader buffers the header of an n-element array whose
// elements follow as separate writes. This is how a server streams an
// array that mixes values and error replies.
func (w *Writer) WriteArrayHeader(n int) error {
	return w.writeHeader('*', int64(n))
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeHeader(prefix byte, n int64) error {
	if err := w.w.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.w.WriteString(strconv.FormatInt(n, 10)); err != nil {
		return err
	}
	_, err := w.w.WriteString("\r\n")
	return err
}

func (w *Writer) writeBulk(b []byte) error {
	if err := w.writeHeader('$', int64(len(b))); err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	_, err := w.w.WriteString("\r\n")
	return err
}

// writeLine buffers a single-line reply. Line replies cannot carry CR or
// LF; they are replaced with spaces to keep the stream parseable.
func (w *Writer) writeLine(prefix byte, s string) error {
	if strings.ContainsAny(s, "\r\n") {
		s = strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' {
				return ' '
			}
			return r
		}, s)
	}
	if err := w.w.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}
	_, err := w.w.WriteString("\r\n")
	return err
}
