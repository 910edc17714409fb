// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"io"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

// Writer appends to a stream. Every call to Write is written through to the
// device before it returns.
type Writer struct {
	dev      device.Device
	name     string
	tail     int64
	allocate func() (int64, error)
	closed   bool
}

var _ io.WriteCloser = (*Writer)(nil)
var _ io.ByteWriter = (*Writer)(nil)

func newWriter(dev device.Device, name string, offset int64, allocate func() (int64, error)) *Writer {
	streamsOpened.WithLabelValues("write").Inc()
	return &Writer{dev: dev, name: name, tail: offset, allocate: allocate}
}

// Name returns the name of the stream.
func (w *Writer) Name() string { return w.name }

// Write appends p to the stream, filling the tail block and then linking new
// blocks as needed. If Write fails partway the stream holds the bytes written
// before the failure.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.AlreadyClosed.WithFormat("stream %q is closed", w.name)
	}

	var n int
	for {
		h, err := readHeader(w.dev, w.tail)
		if err != nil {
			return n, errors.UnknownError.WithFormat("write %q: %w", w.name, err)
		}
		if h.Type != BlockTypeFile {
			return n, errors.CorruptHeader.WithFormat("write %q: block %d is a %v block", w.name, w.tail, h.Type)
		}

		// Payload first, then the header that covers it
		if m := min(h.free(), len(p)-n); m > 0 {
			err = writeAt(w.dev, p[n:n+m], w.tail+HeaderSize+int64(h.Size))
			if err != nil {
				return n, errors.UnknownError.WithFormat("write %q: %w", w.name, err)
			}

			h.Size += uint32(m)
			err = writeHeader(w.dev, w.tail, h)
			if err != nil {
				return n, errors.UnknownError.WithFormat("write %q: %w", w.name, err)
			}
			n += m
			bytesWritten.Add(float64(m))
		}

		if n == len(p) {
			return n, nil
		}

		err = w.extend(h)
		if err != nil {
			return n, err
		}
	}
}

// extend links a new empty block after the tail.
func (w *Writer) extend(tail *header) error {
	next, err := w.allocate()
	if err != nil {
		return errors.UnknownError.WithFormat("write %q: %w", w.name, err)
	}

	err = writeHeader(w.dev, next, &header{Type: BlockTypeFile})
	if err != nil {
		return errors.UnknownError.WithFormat("write %q: %w", w.name, err)
	}

	tail.Next = next
	err = writeHeader(w.dev, w.tail, tail)
	if err != nil {
		return errors.UnknownError.WithFormat("write %q: %w", w.name, err)
	}

	w.tail = next
	return nil
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(c byte) error {
	_, err := w.Write([]byte{c})
	return err
}

// Close releases the writer. Closing a closed writer does nothing.
func (w *Writer) Close() error {
	w.closed = true
	return nil
}
