// Package ingest turns a raw connection byte stream into decoded AVL
// records: buffering partial frames (Frame Reader) and projecting
// accepted records into the outbound schema (Record Normalizer).
package ingest

import (
	"errors"

	"avlgateway/codec"
	"avlgateway/session"
)

// ErrBufferOverflow is returned when accumulated unconsumed bytes exceed
// session.MaxBufferSize without yielding a complete frame — the device is
// either sending garbage or a frame far larger than the protocol allows.
var ErrBufferOverflow = errors.New("ingest: buffer overflow")

// Reader accumulates bytes from one connection and yields decoded frames.
// Single-owner: only the connection's goroutine calls Feed, so unlike
// sol.ScreenBuffer it needs no internal lock.
type Reader struct {
	buf []byte
}

func NewReader() *Reader {
	return &Reader{buf: make([]byte, 0, 4096)}
}

// Feed appends newly read bytes and decodes as many complete frames as
// are available, calling emit for each in order. expectLogin selects the
// grammar, consistent with codec.Decode. Decoding stops at the first
// incomplete or faulting frame; a fault is returned immediately since the
// connection must close.
func (r *Reader) Feed(p []byte, expectLogin func() bool, emit func(*codec.Frame) error) error {
	r.buf = append(r.buf, p...)

	for {
		if len(r.buf) > session.MaxBufferSize {
			return ErrBufferOverflow
		}

		frame, n, err := codec.Decode(r.buf, expectLogin())
		if errors.Is(err, codec.ErrIncomplete) {
			return nil
		}
		if err != nil {
			return err
		}

		r.buf = r.buf[n:]
		if err := emit(frame); err != nil {
			return err
		}
	}
}
