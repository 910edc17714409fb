// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

func TestHeaderLayout(t *testing.T) {
	h := &header{Type: BlockTypeFile, Size: 0x0123, Next: 0x0a00}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x00, 0x02,
		0x00, 0x00, 0x01, 0x23,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0a, 0x00,
	}, b)

	h2 := new(header)
	require.NoError(t, h2.UnmarshalBinary(b))
	require.Equal(t, h, h2)
}

func TestHeaderCorrupt(t *testing.T) {
	cases := map[string][]byte{
		"Type":      {0x00, 0x03, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		"Size":      {0x00, 0x02, 0, 0, 0x01, 0xf3, 0, 0, 0, 0, 0, 0, 0, 0},
		"Alignment": {0x00, 0x02, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01, 0x01},
		"Short":     {0x00, 0x02, 0, 0},
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			err := new(header).UnmarshalBinary(b)
			require.ErrorIs(t, err, errors.CorruptHeader)
		})
	}

	// Full capacity is allowed
	h := new(header)
	require.NoError(t, h.UnmarshalBinary([]byte{0x00, 0x02, 0, 0, 0x01, 0xf2, 0, 0, 0, 0, 0, 0, 0, 0}))
	require.Equal(t, uint32(Capacity), h.Size)
}

func TestReadHeader(t *testing.T) {
	dev := device.NewMemory()
	require.NoError(t, dev.Truncate(2*BlockSize))
	require.NoError(t, writeHeader(dev, BlockSize, &header{Type: BlockTypeDirectory, Size: 10}))

	h, err := readHeader(dev, BlockSize)
	require.NoError(t, err)
	require.Equal(t, BlockTypeDirectory, h.Type)
	require.Equal(t, uint32(10), h.Size)

	// Past the end
	_, err = readHeader(dev, 2*BlockSize)
	require.ErrorIs(t, err, errors.IOFailure)

	// Closed
	require.NoError(t, dev.Close())
	_, err = readHeader(dev, 0)
	require.ErrorIs(t, err, errors.AlreadyClosed)
}

func TestReadBlock(t *testing.T) {
	dev := device.NewMemory()
	require.NoError(t, dev.Truncate(3*BlockSize))

	dir := &directoryBlock{offset: 0, next: 2 * BlockSize, entries: []dirEntry{{"foo", BlockSize}}}
	require.NoError(t, dir.write(dev))
	require.NoError(t, writeHeader(dev, BlockSize, &header{Type: BlockTypeFile, Size: 3}))

	b, err := readBlock(dev, 0)
	require.NoError(t, err)
	require.Equal(t, dir, b)

	b, err = readBlock(dev, BlockSize)
	require.NoError(t, err)
	require.Equal(t, &dataBlock{offset: BlockSize, size: 3}, b)

	b, err = readBlock(dev, 2*BlockSize)
	require.NoError(t, err)
	require.Equal(t, &freeBlock{offset: 2 * BlockSize}, b)
}

func TestDirectoryOverrun(t *testing.T) {
	dev := device.NewMemory()
	require.NoError(t, dev.Truncate(BlockSize))

	// Declare one byte more than the entry holds
	dir := &directoryBlock{entries: []dirEntry{{"foo", BlockSize}}}
	require.NoError(t, dir.write(dev))
	require.NoError(t, writeHeader(dev, 0, &header{Type: BlockTypeDirectory, Size: uint32(entrySize("foo") + 1)}))

	_, err := readBlock(dev, 0)
	require.ErrorIs(t, err, errors.CorruptHeader)
}

func TestValidateName(t *testing.T) {
	require.NoError(t, validateName("stream"))
	require.NoError(t, validateName(string(make([]byte, MaxNameLength))))
	require.ErrorIs(t, validateName(""), errors.BadRequest)
	require.ErrorIs(t, validateName("\xff"), errors.BadRequest)
	require.ErrorIs(t, validateName(string(make([]byte, MaxNameLength+1))), errors.BadRequest)

	// The longest name fits an empty block
	require.True(t, new(directoryBlock).fits(string(make([]byte, MaxNameLength))))
	require.False(t, new(directoryBlock).fits(string(make([]byte, MaxNameLength+1))))
}
