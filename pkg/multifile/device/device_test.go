// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package device

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type opener func(t *testing.T) Device

func devices() map[string]opener {
	return map[string]opener{
		"File": func(t *testing.T) Device {
			d, err := OpenFile(filepath.Join(t.TempDir(), "test.mf"))
			require.NoError(t, err)
			return d
		},
		"Mapped": func(t *testing.T) Device {
			d, err := OpenMapped(filepath.Join(t.TempDir(), "test.mf"))
			require.NoError(t, err)
			return d
		},
		"Memory": func(t *testing.T) Device {
			return NewMemory()
		},
	}
}

func TestDevices(t *testing.T) {
	for name, open := range devices() {
		t.Run(name, func(t *testing.T) {
			d := open(t)

			size, err := d.Size()
			require.NoError(t, err)
			require.Zero(t, size)

			// Extend, then write inside the new region
			require.NoError(t, d.Truncate(1024))
			_, err = d.WriteAt([]byte("hello"), 512)
			require.NoError(t, err)

			size, err = d.Size()
			require.NoError(t, err)
			require.Equal(t, int64(1024), size)

			b := make([]byte, 5)
			_, err = d.ReadAt(b, 512)
			require.NoError(t, err)
			require.Equal(t, "hello", string(b))

			// Extended space is zero-filled
			_, err = d.ReadAt(b, 0)
			require.NoError(t, err)
			require.Equal(t, make([]byte, 5), b)

			// Short reads fail
			_, err = d.ReadAt(make([]byte, 16), 1020)
			require.ErrorIs(t, err, io.EOF)

			// Shrink
			require.NoError(t, d.Truncate(512))
			size, err = d.Size()
			require.NoError(t, err)
			require.Equal(t, int64(512), size)

			require.NoError(t, d.Sync())
			require.NoError(t, d.Close())

			_, err = d.Size()
			require.ErrorIs(t, err, os.ErrClosed)
		})
	}
}

func TestClosedDevice(t *testing.T) {
	for name, open := range devices() {
		t.Run(name, func(t *testing.T) {
			d := open(t)
			require.NoError(t, d.Truncate(512))
			require.NoError(t, d.Close())

			_, err := d.ReadAt(make([]byte, 4), 0)
			require.ErrorIs(t, err, os.ErrClosed)
			_, err = d.WriteAt([]byte("data"), 0)
			require.ErrorIs(t, err, os.ErrClosed)
			_, err = d.Size()
			require.ErrorIs(t, err, os.ErrClosed)
			require.ErrorIs(t, d.Truncate(1024), os.ErrClosed)
			require.ErrorIs(t, d.Sync(), os.ErrClosed)
			require.ErrorIs(t, d.Close(), os.ErrClosed)
		})
	}
}

func TestWritePastEnd(t *testing.T) {
	for name, open := range devices() {
		t.Run(name, func(t *testing.T) {
			d := open(t)
			defer d.Close()

			_, err := d.WriteAt([]byte("tail"), 100)
			require.NoError(t, err)

			size, err := d.Size()
			require.NoError(t, err)
			require.Equal(t, int64(104), size)
		})
	}
}

func TestMemoryReopen(t *testing.T) {
	m := NewMemory()
	_, err := m.WriteAt([]byte("persisted"), 0)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, err = m.ReadAt(make([]byte, 1), 0)
	require.ErrorIs(t, err, os.ErrClosed)

	m = m.Reopen()
	b := make([]byte, 9)
	_, err = m.ReadAt(b, 0)
	require.NoError(t, err)
	require.Equal(t, "persisted", string(b))
}

func TestMappedPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.mf")
	m, err := OpenMapped(path)
	require.NoError(t, err)
	_, err = m.WriteAt([]byte("mapped"), 0)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "mapped", string(b))
}
