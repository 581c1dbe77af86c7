package codec

import (
	"errors"
	"io"
)

// state tracks the lifecycle of one encode or decode call.
type state uint8

const (
	stateInit state = iota
	stateProcessing
	stateDrained
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateProcessing:
		return "processing"
	case stateDrained:
		return "drained"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// sourceReader remembers the first non-EOF error returned by the underlying
// reader so engine failures can be told apart from source failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && s.err == nil {
		s.err = err
	}
	return n, err
}

// fill reads from r until buf is full or r returns an error. Unlike
// io.ReadFull it passes the reader's own error through untouched, so an
// engine reporting io.ErrUnexpectedEOF for a truncated stream is not
// confused with a short final chunk.
func fill(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
