// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"encoding/binary"
	"io"
	"os"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

const (
	// BlockSize is the size of every block in a container.
	BlockSize = 512

	// HeaderSize is the size of the header at the start of every block.
	HeaderSize = 14

	// Capacity is the number of payload bytes a block can hold.
	Capacity = BlockSize - HeaderSize
)

// BlockType is the type tag stored in a block header.
type BlockType uint16

const (
	BlockTypeFree BlockType = iota
	BlockTypeDirectory
	BlockTypeFile
)

func (t BlockType) String() string {
	switch t {
	case BlockTypeFree:
		return "free"
	case BlockTypeDirectory:
		return "directory"
	case BlockTypeFile:
		return "file"
	default:
		return "invalid"
	}
}

func (t BlockType) valid() bool { return t <= BlockTypeFile }

// header is the fixed record at the start of each block.
//
//	[0, 2)  type
//	[2, 6)  payload size
//	[6, 14) offset of the next block, or zero
type header struct {
	Type BlockType
	Size uint32
	Next int64
}

func (h *header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	h.put(b)
	return b, nil
}

func (h *header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return errors.CorruptHeader.WithFormat("header is %d bytes, want %d", len(b), HeaderSize)
	}

	h.Type = BlockType(binary.BigEndian.Uint16(b[0:]))
	h.Size = binary.BigEndian.Uint32(b[2:])
	next := binary.BigEndian.Uint64(b[6:])

	if !h.Type.valid() {
		return errors.CorruptHeader.WithFormat("invalid block type %d", h.Type)
	}
	if h.Size > Capacity {
		return errors.CorruptHeader.WithFormat("payload size %d exceeds block capacity", h.Size)
	}
	if next%BlockSize != 0 || int64(next) < 0 {
		return errors.CorruptHeader.WithFormat("next block offset %d is not a block boundary", next)
	}
	h.Next = int64(next)
	return nil
}

func (h *header) put(b []byte) {
	binary.BigEndian.PutUint16(b[0:], uint16(h.Type))
	binary.BigEndian.PutUint32(b[2:], h.Size)
	binary.BigEndian.PutUint64(b[6:], uint64(h.Next))
}

// free returns the number of payload bytes still available.
func (h *header) free() int { return Capacity - int(h.Size) }

func readHeader(dev device.Device, offset int64) (*header, error) {
	var b [HeaderSize]byte
	err := readAt(dev, b[:], offset)
	if err != nil {
		return nil, err
	}

	h := new(header)
	err = h.UnmarshalBinary(b[:])
	if err != nil {
		return nil, errors.UnknownError.WithFormat("block %d: %w", offset, err)
	}
	return h, nil
}

func writeHeader(dev device.Device, offset int64, h *header) error {
	var b [HeaderSize]byte
	h.put(b[:])
	return writeAt(dev, b[:], offset)
}

func readAt(dev device.Device, b []byte, offset int64) error {
	n, err := dev.ReadAt(b, offset)
	if n == len(b) {
		// io.ReaderAt may return io.EOF on a read that ends at the end of
		// the device
		return nil
	}
	switch {
	case errors.Is(err, os.ErrClosed):
		return errors.AlreadyClosed.WithFormat("read %d bytes at %d: device is closed", len(b), offset)
	case err == nil, errors.Is(err, io.EOF):
		return errors.IOFailure.WithFormat("short read at %d: got %d of %d bytes", offset, n, len(b))
	default:
		return errors.IOFailure.WithFormat("read %d bytes at %d: %w", len(b), offset, err)
	}
}

func writeAt(dev device.Device, b []byte, offset int64) error {
	n, err := dev.WriteAt(b, offset)
	switch {
	case err == nil && n == len(b):
		return nil
	case err == nil:
		return errors.IOFailure.WithFormat("short write at %d: wrote %d of %d bytes", offset, n, len(b))
	case errors.Is(err, os.ErrClosed):
		return errors.AlreadyClosed.WithFormat("write %d bytes at %d: device is closed", len(b), offset)
	default:
		return errors.IOFailure.WithFormat("write %d bytes at %d: %w", len(b), offset, err)
	}
}
