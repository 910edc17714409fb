// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package device

import (
	"fmt"
	"os"
)

// File is a [Device] backed by a regular file.
type File struct {
	f      *os.File
	closed bool
}

var _ Device = (*File)(nil)

// OpenFile opens or creates the file at path for reading and writing.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// Name returns the path of the file.
func (d *File) Name() string { return d.f.Name() }

func (d *File) ReadAt(p []byte, off int64) (int, error) {
	if d.closed {
		return 0, os.ErrClosed
	}
	n, err := d.f.ReadAt(p, off)
	if err != nil {
		return n, fmt.Errorf("disk read error: %w", err)
	}
	return n, nil
}

func (d *File) WriteAt(p []byte, off int64) (int, error) {
	if d.closed {
		return 0, os.ErrClosed
	}
	n, err := d.f.WriteAt(p, off)
	if err != nil {
		return n, fmt.Errorf("disk write error: %w", err)
	}
	return n, nil
}

func (d *File) Size() (int64, error) {
	if d.closed {
		return 0, os.ErrClosed
	}
	st, err := d.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("disk stat error: %w", err)
	}
	return st.Size(), nil
}

func (d *File) Truncate(size int64) error {
	if d.closed {
		return os.ErrClosed
	}
	if err := d.f.Truncate(size); err != nil {
		return fmt.Errorf("disk truncate error: %w", err)
	}
	return nil
}

func (d *File) Sync() error {
	if d.closed {
		return os.ErrClosed
	}
	if err := d.f.Sync(); err != nil {
		return fmt.Errorf("disk sync error: %w", err)
	}
	return nil
}

func (d *File) Close() error {
	if d.closed {
		return os.ErrClosed
	}
	d.closed = true
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("disk close error: %w", err)
	}
	return nil
}
