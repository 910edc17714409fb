// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/multifile/internal/logging"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

func newTestContainer(t *testing.T, options ...Option) (*Container, *device.Memory) {
	dev := device.NewMemory()
	options = append([]Option{WithLogger(logging.TestLogger(t))}, options...)
	c, err := New(dev, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dev
}

func writeStream(t *testing.T, c *Container, name string, data []byte) {
	t.Helper()
	w, err := c.OpenWrite(name)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func deviceSize(t *testing.T, dev device.Device) int64 {
	size, err := dev.Size()
	require.NoError(t, err)
	return size
}

func TestEmptyContainer(t *testing.T) {
	c, dev := newTestContainer(t)
	require.Equal(t, int64(BlockSize), deviceSize(t, dev))

	h, err := readHeader(dev, 0)
	require.NoError(t, err)
	require.Equal(t, &header{Type: BlockTypeDirectory}, h)

	names, err := c.Streams()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestOpenCorrupt(t *testing.T) {
	dev := device.NewMemory()
	require.NoError(t, dev.Truncate(BlockSize))
	require.NoError(t, writeHeader(dev, 0, &header{Type: BlockTypeFile}))

	_, err := New(dev, WithLogger(logging.TestLogger(t)))
	require.ErrorIs(t, err, errors.CorruptHeader)

	// The device is closed on failure
	_, err = dev.Size()
	require.Error(t, err)
}

func TestOpenDirectoryLoop(t *testing.T) {
	dev := device.NewMemory()
	require.NoError(t, dev.Truncate(2*BlockSize))
	require.NoError(t, (&directoryBlock{offset: 0, next: BlockSize}).write(dev))
	require.NoError(t, (&directoryBlock{offset: BlockSize, next: BlockSize}).write(dev))

	_, err := New(dev, WithLogger(logging.TestLogger(t)))
	require.ErrorIs(t, err, errors.CorruptHeader)
}

func TestWriteAcrossBlocks(t *testing.T) {
	c, _ := newTestContainer(t)

	// Many small writes straddle block boundaries
	w, err := c.OpenWrite("s")
	require.NoError(t, err)
	data := pattern(3*Capacity + 17)
	for _, b := range data {
		require.NoError(t, w.WriteByte(b))
	}
	require.NoError(t, w.Close())

	// A single large read crosses every boundary
	r, err := c.OpenRead("s")
	require.NoError(t, err)
	buf := make([]byte, len(data)+10)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf[:n])

	_, err = r.Read(buf)
	require.ErrorIs(t, err, io.EOF)
	_, err = r.ReadByte()
	require.ErrorIs(t, err, io.EOF)

	info, err := c.Stat("s")
	require.NoError(t, err)
	require.Equal(t, &StreamInfo{Name: "s", Offset: BlockSize, Size: int64(len(data)), Blocks: 4}, info)
}

func TestMarkReset(t *testing.T) {
	c, _ := newTestContainer(t)
	data := pattern(2 * BlockSize)
	writeStream(t, c, "s", data)

	r, err := c.OpenRead("s")
	require.NoError(t, err)

	// Reset without a mark
	require.ErrorIs(t, r.Reset(), errors.MarkNotSet)

	_, err = io.ReadFull(r, make([]byte, 400))
	require.NoError(t, err)
	r.Mark()

	// Read past the block boundary, then go back
	a := make([]byte, 300)
	_, err = io.ReadFull(r, a)
	require.NoError(t, err)
	require.Equal(t, data[400:700], a)

	require.NoError(t, r.Reset())
	b := make([]byte, 300)
	_, err = io.ReadFull(r, b)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// The mark is cleared
	require.ErrorIs(t, r.Reset(), errors.MarkNotSet)
}

func TestReaderWriterClose(t *testing.T) {
	c, _ := newTestContainer(t)

	w, err := c.OpenWrite("s")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	require.ErrorIs(t, err, errors.AlreadyClosed)

	r, err := c.OpenRead("s")
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	_, err = r.Read(make([]byte, 1))
	require.ErrorIs(t, err, errors.AlreadyClosed)
	require.ErrorIs(t, r.Reset(), errors.AlreadyClosed)
}

func TestReaderAfterContainerClose(t *testing.T) {
	c, _ := newTestContainer(t)
	writeStream(t, c, "s", []byte("data"))

	r, err := c.OpenRead("s")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = r.Read(make([]byte, 4))
	require.ErrorIs(t, err, errors.AlreadyClosed)
}

func TestReaderAcrossBlockAfterFileClose(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "test.mf"), WithLogger(logging.TestLogger(t)))
	require.NoError(t, err)
	writeStream(t, c, "s", pattern(Capacity+10))

	r, err := c.OpenRead("s")
	require.NoError(t, err)
	_, err = io.ReadFull(r, make([]byte, Capacity))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// The next read moves to the second block
	_, err = r.Read(make([]byte, 4))
	require.ErrorIs(t, err, errors.AlreadyClosed)
}

func TestOpenShortDevice(t *testing.T) {
	dev := device.NewMemory()
	_, err := dev.WriteAt([]byte("not a container"), 0)
	require.NoError(t, err)

	_, err = New(dev, WithLogger(logging.TestLogger(t)))
	require.ErrorIs(t, err, errors.CorruptHeader)
}

func TestReadAppended(t *testing.T) {
	c, _ := newTestContainer(t)

	w, err := c.OpenWrite("s")
	require.NoError(t, err)
	r, err := c.OpenRead("s")
	require.NoError(t, err)

	_, err = r.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	// Data written after the reader reached the end is visible
	_, err = w.Write([]byte("late"))
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "late", string(b))
}

func TestAllocationPolicy(t *testing.T) {
	data := pattern(4 * Capacity)

	cases := map[AllocationPolicy]int64{
		// The first block is reused, the rest are appended
		AppendContinuations: 3 * BlockSize,

		// Every block is reused
		ReuseFreeBlocks: 0,
	}
	for policy, growth := range cases {
		t.Run(policy.String(), func(t *testing.T) {
			c, dev := newTestContainer(t, WithAllocationPolicy(policy))
			writeStream(t, c, "a", data)
			writeStream(t, c, "b", []byte("b"))
			require.NoError(t, c.Delete("a"))

			before := deviceSize(t, dev)
			writeStream(t, c, "c", data)
			require.Equal(t, before+growth, deviceSize(t, dev))

			r, err := c.OpenRead("c")
			require.NoError(t, err)
			b, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, data, b)
		})
	}
}

func TestParseAllocationPolicy(t *testing.T) {
	for _, p := range []AllocationPolicy{ReuseFreeBlocks, AppendContinuations} {
		q, err := ParseAllocationPolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, q)
	}
	_, err := ParseAllocationPolicy("sometimes")
	require.ErrorIs(t, err, errors.BadRequest)
}

func TestAllocateAligns(t *testing.T) {
	c, dev := newTestContainer(t)

	// A ragged tail is rounded up
	require.NoError(t, dev.Truncate(BlockSize+100))
	offset, err := c.allocate(false)
	require.NoError(t, err)
	require.Equal(t, int64(2*BlockSize), offset)
	require.Equal(t, int64(3*BlockSize), deviceSize(t, dev))
}

func TestInvalidName(t *testing.T) {
	c, _ := newTestContainer(t)
	_, err := c.OpenWrite("")
	require.ErrorIs(t, err, errors.BadRequest)
	_, err = c.OpenWrite(string(bytes.Repeat([]byte{'x'}, MaxNameLength+1)))
	require.ErrorIs(t, err, errors.BadRequest)

	_, err = c.OpenWrite(string(bytes.Repeat([]byte{'x'}, MaxNameLength)))
	require.NoError(t, err)
}

func TestCheckAndRepair(t *testing.T) {
	c, dev := newTestContainer(t)
	writeStream(t, c, "a", pattern(2*Capacity))
	writeStream(t, c, "b", pattern(10))

	r, err := c.Check()
	require.NoError(t, err)
	require.True(t, r.Healthy(), "%+v", r)
	require.Equal(t, 4, r.Blocks)
	require.Equal(t, 1, r.Directory)
	require.Equal(t, 3, r.Data)
	require.Equal(t, 2, r.Streams)

	// A data block nothing references
	orphan, err := c.allocate(false)
	require.NoError(t, err)
	require.NoError(t, writeHeader(dev, orphan, &header{Type: BlockTypeFile, Size: 5}))

	// A block with a garbage header
	garbage, err := c.allocate(false)
	require.NoError(t, err)
	_, err = dev.WriteAt([]byte{0xff, 0xff}, garbage)
	require.NoError(t, err)

	r, err = c.Check()
	require.NoError(t, err)
	require.False(t, r.Healthy())
	require.Equal(t, []int64{orphan, garbage}, r.Orphans)
	require.Equal(t, 1, r.Invalid)

	r, err = c.Repair()
	require.NoError(t, err)
	require.Equal(t, 2, r.Released)

	r, err = c.Check()
	require.NoError(t, err)
	require.True(t, r.Healthy(), "%+v", r)
	require.Equal(t, 2, r.Free)

	free, err := c.FreeBlocks()
	require.NoError(t, err)
	require.Equal(t, 2, free)
}

func TestCheckCrossLinked(t *testing.T) {
	c, dev := newTestContainer(t)
	writeStream(t, c, "a", pattern(2*Capacity))
	writeStream(t, c, "b", pattern(10))

	// Point b at the second block of a
	a, err := c.Stat("a")
	require.NoError(t, err)
	h, err := readHeader(dev, a.Offset)
	require.NoError(t, err)
	b, err := c.Stat("b")
	require.NoError(t, err)
	require.NoError(t, writeHeader(dev, b.Offset, &header{Type: BlockTypeFile, Size: 10, Next: h.Next}))

	r, err := c.Check()
	require.NoError(t, err)
	require.Equal(t, []int64{h.Next}, r.CrossLinked)
}

func TestCheckWrongType(t *testing.T) {
	c, dev := newTestContainer(t)
	writeStream(t, c, "a", pattern(2*Capacity))

	info, err := c.Stat("a")
	require.NoError(t, err)
	h, err := readHeader(dev, info.Offset)
	require.NoError(t, err)

	// Free the second block behind the stream's back
	require.NoError(t, writeHeader(dev, h.Next, &header{Type: BlockTypeFree}))

	r, err := c.Check()
	require.NoError(t, err)
	require.Equal(t, []int64{h.Next}, r.WrongType)

	_, err = c.Stat("a")
	require.ErrorIs(t, err, errors.CorruptHeader)
}

func TestChainLoop(t *testing.T) {
	c, dev := newTestContainer(t)
	writeStream(t, c, "a", pattern(10))

	info, err := c.Stat("a")
	require.NoError(t, err)
	require.NoError(t, writeHeader(dev, info.Offset, &header{Type: BlockTypeFile, Size: 10, Next: info.Offset}))

	r, err := c.Check()
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, r.Broken)

	_, err = c.Stat("a")
	require.ErrorIs(t, err, errors.CorruptHeader)

	rd, err := c.OpenRead("a")
	require.NoError(t, err)
	_, err = io.ReadAll(rd)
	require.ErrorIs(t, err, errors.CorruptHeader)
}

func TestBlocks(t *testing.T) {
	c, _ := newTestContainer(t)
	writeStream(t, c, "a", pattern(Capacity+1))
	writeStream(t, c, "b", pattern(1))
	require.NoError(t, c.Delete("b"))

	blocks, err := c.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	require.Equal(t, DirectoryOwner, blocks[0].Owner)
	require.Equal(t, BlockTypeDirectory, blocks[0].Type)
	require.Equal(t, "a", blocks[1].Owner)
	require.Equal(t, int64(2*BlockSize), blocks[1].Next)
	require.Equal(t, uint32(Capacity), blocks[1].Size)
	require.Equal(t, "a", blocks[2].Owner)
	require.Equal(t, uint32(1), blocks[2].Size)
	require.Equal(t, BlockTypeFree, blocks[3].Type)
	require.Empty(t, blocks[3].Owner)
}

func TestClosedContainer(t *testing.T) {
	c, _ := newTestContainer(t)
	require.NoError(t, c.Close())

	_, err := c.Stat("s")
	require.ErrorIs(t, err, errors.AlreadyClosed)
	_, err = c.Check()
	require.ErrorIs(t, err, errors.AlreadyClosed)
	_, err = c.Blocks()
	require.ErrorIs(t, err, errors.AlreadyClosed)
	_, err = c.FreeBlocks()
	require.ErrorIs(t, err, errors.AlreadyClosed)
	require.ErrorIs(t, c.Sync(), errors.AlreadyClosed)
	require.ErrorIs(t, c.Close(), errors.AlreadyClosed)
}

func TestMetrics(t *testing.T) {
	c, _ := newTestContainer(t)

	open := testutil.ToFloat64(containersOpen)
	written := testutil.ToFloat64(bytesWritten)
	read := testutil.ToFloat64(bytesRead)
	released := testutil.ToFloat64(blocksReleased)
	appended := testutil.ToFloat64(blocksAllocated.WithLabelValues("append"))
	reused := testutil.ToFloat64(blocksAllocated.WithLabelValues("free"))
	writers := testutil.ToFloat64(streamsOpened.WithLabelValues("write"))
	readers := testutil.ToFloat64(streamsOpened.WithLabelValues("read"))

	writeStream(t, c, "s", pattern(Capacity+1))
	r, err := c.OpenRead("s")
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, c.Delete("s"))
	writeStream(t, c, "t", pattern(1))

	require.Equal(t, written+Capacity+2, testutil.ToFloat64(bytesWritten))
	require.Equal(t, read+Capacity+1, testutil.ToFloat64(bytesRead))
	require.Equal(t, released+2, testutil.ToFloat64(blocksReleased))
	require.Equal(t, appended+2, testutil.ToFloat64(blocksAllocated.WithLabelValues("append")))
	require.Equal(t, reused+1, testutil.ToFloat64(blocksAllocated.WithLabelValues("free")))
	require.Equal(t, writers+2, testutil.ToFloat64(streamsOpened.WithLabelValues("write")))
	require.Equal(t, readers+1, testutil.ToFloat64(streamsOpened.WithLabelValues("read")))

	require.NoError(t, c.Close())
	require.Equal(t, open-1, testutil.ToFloat64(containersOpen))
}
