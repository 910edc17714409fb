// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"io"
	"os"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

// Reader reads a stream by following its chain of data blocks.
type Reader struct {
	dev    device.Device
	name   string
	pos    readPos
	mark   *readPos
	closed bool
}

type readPos struct {
	block    int64 // offset of the current block
	consumed int   // bytes of the current block already read
	hops     int64 // blocks followed so far, bounds a looping chain
}

var _ io.ReadCloser = (*Reader)(nil)
var _ io.ByteReader = (*Reader)(nil)

func newReader(dev device.Device, name string, offset int64) *Reader {
	streamsOpened.WithLabelValues("read").Inc()
	return &Reader{dev: dev, name: name, pos: readPos{block: offset}}
}

// Name returns the name of the stream.
func (r *Reader) Name() string { return r.name }

// Read reads up to len(p) bytes, continuing into the next block when the
// current one is exhausted. Read returns [io.EOF] at the end of the stream.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.AlreadyClosed.WithFormat("stream %q is closed", r.name)
	}

	var n int
	for n < len(p) {
		h, err := readHeader(r.dev, r.pos.block)
		if err != nil {
			return n, errors.UnknownError.WithFormat("read %q: %w", r.name, err)
		}
		if h.Type != BlockTypeFile {
			return n, errors.CorruptHeader.WithFormat("read %q: block %d is a %v block", r.name, r.pos.block, h.Type)
		}

		if avail := int(h.Size) - r.pos.consumed; avail > 0 {
			m := min(avail, len(p)-n)
			err = readAt(r.dev, p[n:n+m], r.pos.block+HeaderSize+int64(r.pos.consumed))
			if err != nil {
				return n, errors.UnknownError.WithFormat("read %q: %w", r.name, err)
			}
			n += m
			r.pos.consumed += m
			bytesRead.Add(float64(m))
			continue
		}

		if h.Next == 0 {
			// Stay on the tail so data appended later is visible
			if n == 0 {
				return 0, io.EOF
			}
			break
		}

		err = r.advance(h.Next)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *Reader) advance(next int64) error {
	size, err := r.dev.Size()
	switch {
	case errors.Is(err, os.ErrClosed):
		return errors.AlreadyClosed.WithFormat("read %q: device is closed", r.name)
	case err != nil:
		return errors.IOFailure.WithFormat("read %q: %w", r.name, err)
	}
	r.pos.hops++
	if r.pos.hops > size/BlockSize {
		return errors.CorruptHeader.WithFormat("read %q: block chain loops", r.name)
	}
	r.pos.block = next
	r.pos.consumed = 0
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	n, err := r.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	return 0, err
}

// Mark records the current position. Only one mark is kept.
func (r *Reader) Mark() {
	pos := r.pos
	r.mark = &pos
}

// Reset returns to the position recorded by [Reader.Mark] and clears the
// mark.
func (r *Reader) Reset() error {
	if r.closed {
		return errors.AlreadyClosed.WithFormat("stream %q is closed", r.name)
	}
	if r.mark == nil {
		return errors.MarkNotSet.WithFormat("stream %q has no mark", r.name)
	}
	r.pos = *r.mark
	r.mark = nil
	return nil
}

// Close releases the reader. Closing a closed reader does nothing.
func (r *Reader) Close() error {
	r.closed = true
	r.mark = nil
	return nil
}
