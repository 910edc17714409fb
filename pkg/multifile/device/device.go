// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package device provides the random-access devices a container is stored on.
package device

import "io"

// Device is a byte-addressable random-access device. ReadAt and WriteAt are
// positioned, so there is no shared seek offset. A short read is an error.
// Every method of a closed device fails with [os.ErrClosed].
type Device interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the current length of the device.
	Size() (int64, error)

	// Truncate sets the length of the device, zero-filling any extension.
	Truncate(size int64) error

	// Sync flushes written data to stable storage.
	Sync() error

	// Close releases the device.
	Close() error
}
