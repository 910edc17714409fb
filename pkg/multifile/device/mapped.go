// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package device

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Mapped is a [Device] backed by a memory-mapped file. The mapping always
// covers the whole file and is remapped whenever the file changes size.
type Mapped struct {
	file *os.File
	data mmap.MMap
}

var _ Device = (*Mapped)(nil)

// OpenMapped opens or creates the file at path and maps it read-write.
func OpenMapped(path string) (*Mapped, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	m := &Mapped{file: f}
	err = m.remap(st.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mapped) ReadAt(p []byte, off int64) (int, error) {
	if m.file == nil {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("disk read error: negative offset %d", off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes p at off, extending the file first if necessary.
func (m *Mapped) WriteAt(p []byte, off int64) (int, error) {
	if m.file == nil {
		return 0, os.ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("disk write error: negative offset %d", off)
	}
	if end := off + int64(len(p)); end > int64(len(m.data)) {
		err := m.Truncate(end)
		if err != nil {
			return 0, err
		}
	}
	return copy(m.data[off:], p), nil
}

func (m *Mapped) Size() (int64, error) {
	if m.file == nil {
		return 0, os.ErrClosed
	}
	return int64(len(m.data)), nil
}

func (m *Mapped) Truncate(size int64) error {
	if m.file == nil {
		return os.ErrClosed
	}

	err := m.unmap()
	if err != nil {
		return err
	}

	err = m.file.Truncate(size)
	if err != nil {
		return fmt.Errorf("disk truncate error: %w", err)
	}

	return m.remap(size)
}

func (m *Mapped) Sync() error {
	if m.file == nil {
		return os.ErrClosed
	}
	if m.data != nil {
		err := m.data.Flush()
		if err != nil {
			return fmt.Errorf("disk flush error: %w", err)
		}
	}
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("disk sync error: %w", err)
	}
	return nil
}

func (m *Mapped) Close() error {
	if m.file == nil {
		return os.ErrClosed
	}

	errs := []error{m.unmap(), m.file.Close()}
	m.file = nil
	return errors.Join(errs...)
}

func (m *Mapped) remap(size int64) error {
	// A zero-length region cannot be mapped
	if size == 0 {
		return nil
	}

	var err error
	m.data, err = mmap.MapRegion(m.file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		return fmt.Errorf("disk map error: %w", err)
	}
	return nil
}

func (m *Mapped) unmap() error {
	if m.data == nil {
		return nil
	}

	err := m.data.Unmap()
	m.data = nil
	if err != nil {
		return fmt.Errorf("disk unmap error: %w", err)
	}
	return nil
}
