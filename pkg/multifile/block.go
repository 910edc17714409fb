// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"encoding/binary"
	"unicode/utf8"

	"gitlab.com/accumulatenetwork/multifile/internal/util/pool"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

// block is a decoded block. It is one of [*freeBlock], [*directoryBlock], or
// [*dataBlock].
type block interface {
	Type() BlockType
	Offset() int64
}

type freeBlock struct {
	offset int64
}

type directoryBlock struct {
	offset  int64
	next    int64
	entries []dirEntry
}

type dataBlock struct {
	offset int64
	size   uint32
	next   int64
}

type dirEntry struct {
	Name   string
	Offset int64
}

func (b *freeBlock) Type() BlockType      { return BlockTypeFree }
func (b *directoryBlock) Type() BlockType { return BlockTypeDirectory }
func (b *dataBlock) Type() BlockType      { return BlockTypeFile }

func (b *freeBlock) Offset() int64      { return b.offset }
func (b *directoryBlock) Offset() int64 { return b.offset }
func (b *dataBlock) Offset() int64      { return b.offset }

// readBlock decodes the block at offset.
func readBlock(dev device.Device, offset int64) (block, error) {
	h, err := readHeader(dev, offset)
	if err != nil {
		return nil, err
	}

	switch h.Type {
	case BlockTypeFree:
		return &freeBlock{offset: offset}, nil

	case BlockTypeFile:
		return &dataBlock{offset: offset, size: h.Size, next: h.Next}, nil

	case BlockTypeDirectory:
		payload := make([]byte, h.Size)
		err = readAt(dev, payload, offset+HeaderSize)
		if err != nil {
			return nil, err
		}

		b := &directoryBlock{offset: offset, next: h.Next}
		b.entries, err = parseEntries(payload)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("directory block %d: %w", offset, err)
		}
		return b, nil

	default:
		return nil, errors.InternalError.WithFormat("unhandled block type %v", h.Type)
	}
}

func parseEntries(b []byte) ([]dirEntry, error) {
	var entries []dirEntry
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, errors.CorruptHeader.With("entry overruns the payload")
		}
		n := int(binary.BigEndian.Uint16(b))
		b = b[2:]
		if len(b) < n+8 {
			return nil, errors.CorruptHeader.With("entry overruns the payload")
		}

		e := dirEntry{
			Name:   string(b[:n]),
			Offset: int64(binary.BigEndian.Uint64(b[n:])),
		}
		b = b[n+8:]

		if e.Offset <= 0 || e.Offset%BlockSize != 0 {
			return nil, errors.CorruptHeader.WithFormat("stream %q has invalid offset %d", e.Name, e.Offset)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func entrySize(name string) int { return 2 + len(name) + 8 }

func (b *directoryBlock) payloadSize() int {
	var n int
	for _, e := range b.entries {
		n += entrySize(e.Name)
	}
	return n
}

// fits returns true if an entry for name can be added. An entry must leave at
// least one byte of the block unused.
func (b *directoryBlock) fits(name string) bool {
	return b.payloadSize()+entrySize(name) < Capacity
}

var blockBuffers = pool.New[[BlockSize]byte]()

func (b *directoryBlock) write(dev device.Device) error {
	block := blockBuffers.Get()
	defer blockBuffers.Put(block)

	buf := block[:HeaderSize]
	for _, e := range b.entries {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(e.Name)))
		buf = append(buf, e.Name...)
		buf = binary.BigEndian.AppendUint64(buf, uint64(e.Offset))
	}

	h := header{Type: BlockTypeDirectory, Size: uint32(len(buf) - HeaderSize), Next: b.next}
	h.put(buf)
	return writeAt(dev, buf, b.offset)
}

// MaxNameLength is the longest stream name, in bytes, that fits in a
// directory block.
const MaxNameLength = Capacity - 2 - 8 - 1

func validateName(name string) error {
	switch {
	case name == "":
		return errors.BadRequest.With("stream name is empty")
	case !utf8.ValidString(name):
		return errors.BadRequest.WithFormat("stream name %q is not valid UTF-8", name)
	case len(name) > MaxNameLength:
		return errors.BadRequest.WithFormat("stream name is %d bytes, the limit is %d", len(name), MaxNameLength)
	}
	return nil
}
