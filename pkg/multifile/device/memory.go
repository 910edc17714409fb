// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package device

import (
	"fmt"
	"io"
	"os"
)

// Memory is a [Device] backed by a byte slice. Handles returned by Reopen
// share the same image, so a closed container can be opened again.
type Memory struct {
	image  *memoryImage
	closed bool
}

type memoryImage struct {
	data []byte
}

var _ Device = (*Memory)(nil)

// NewMemory returns an empty memory device.
func NewMemory() *Memory {
	return &Memory{image: new(memoryImage)}
}

// Reopen returns a new open handle on the same image.
func (m *Memory) Reopen() *Memory {
	return &Memory{image: m.image}
}

// Bytes returns the current contents of the image. The slice is only valid
// until the next write or truncate.
func (m *Memory) Bytes() []byte {
	return m.image.data
}

func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("disk read error: negative offset %d", off)
	}
	if off >= int64(len(m.image.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.image.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes p at off, growing the image if necessary.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("disk write error: negative offset %d", off)
	}
	if end := off + int64(len(p)); end > int64(len(m.image.data)) {
		m.grow(end)
	}
	return copy(m.image.data[off:], p), nil
}

func (m *Memory) Size() (int64, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	return int64(len(m.image.data)), nil
}

func (m *Memory) Truncate(size int64) error {
	if m.closed {
		return os.ErrClosed
	}
	if size < 0 {
		return fmt.Errorf("disk truncate error: negative size %d", size)
	}
	if size <= int64(len(m.image.data)) {
		m.image.data = m.image.data[:size]
		return nil
	}
	m.grow(size)
	return nil
}

func (m *Memory) grow(size int64) {
	if size <= int64(cap(m.image.data)) {
		n := len(m.image.data)
		m.image.data = m.image.data[:size]
		clear(m.image.data[n:])
		return
	}
	data := make([]byte, size, max(size, 2*int64(cap(m.image.data))))
	copy(data, m.image.data)
	m.image.data = data
}

func (m *Memory) Sync() error {
	if m.closed {
		return os.ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	if m.closed {
		return os.ErrClosed
	}
	m.closed = true
	return nil
}
