// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package mftest is a set of tests that any container device must pass.
package mftest

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile"
)

// Opener opens a container. Every call must open the same underlying storage.
type Opener = func() (*multifile.Container, error)

type closableContainer struct {
	*multifile.Container
	t      testing.TB
	closed bool
}

func (c *closableContainer) Close() {
	if c.closed {
		return
	}
	c.closed = true
	require.NoError(c.t, c.Container.Close())
}

func openContainer(t testing.TB, open Opener) *closableContainer {
	c, err := open()
	require.NoError(t, err)
	cc := &closableContainer{c, t, false}
	t.Cleanup(cc.Close)
	return cc
}

const quickBrownFox = "The quick brown fox jumps over the lazy dog"

// record is a string with a 2-byte big-endian length prefix.
func record(s string) []byte {
	b := binary.BigEndian.AppendUint16(nil, uint16(len(s)))
	return append(b, s...)
}

// StreamCreator creates streams, such as a [multifile.Container].
type StreamCreator interface {
	OpenWrite(name string) (*multifile.Writer, error)
}

// StreamOpener opens streams for reading, such as a [multifile.Container].
type StreamOpener interface {
	OpenRead(name string) (*multifile.Reader, error)
}

// WriteStream creates the named stream with the given contents.
func WriteStream(t testing.TB, c StreamCreator, name string, data []byte) {
	t.Helper()
	w, err := c.OpenWrite(name)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())
}

// ReadStream reads the whole of the named stream.
func ReadStream(t testing.TB, c StreamOpener, name string) []byte {
	t.Helper()
	r, err := c.OpenRead(name)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}

func randomBytes(t testing.TB, n int) []byte {
	b := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, b)
	require.NoError(t, err)
	return b
}

func size(t testing.TB, c interface{ Size() (int64, error) }) int64 {
	s, err := c.Size()
	require.NoError(t, err)
	return s
}

func TestScenario(t *testing.T, open Opener) {
	c := openContainer(t, open)
	require.Equal(t, int64(multifile.BlockSize), size(t, c))

	names, err := c.Streams()
	require.NoError(t, err)
	require.Empty(t, names)

	// Write 100 records
	w, err := c.OpenWrite("a")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err := w.Write(record(quickBrownFox))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Read them back
	r, err := c.OpenRead("a")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		b := make([]byte, 2+len(quickBrownFox))
		_, err := io.ReadFull(r, b)
		require.NoError(t, err, "Record %d", i)
		require.Equal(t, record(quickBrownFox), b, "Record %d", i)
	}
	_, err = r.Read(make([]byte, 2))
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, r.Close())

	// Create b, delete a, create c
	WriteStream(t, c, "b", []byte("Madam, I am Adam"))
	require.NoError(t, c.Delete("a"))
	w, err = c.OpenWrite("c")
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err := w.Write(record(quickBrownFox))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	names, err = c.Streams()
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, names)
}

func TestRoundTrip(t *testing.T, open Opener) {
	c := openContainer(t, open)

	sizes := []int{
		0, 1,
		multifile.Capacity - 1, multifile.Capacity, multifile.Capacity + 1,
		2 * multifile.Capacity, 2*multifile.Capacity + 1,
		5*multifile.BlockSize + 3,
		64 << 10,
	}
	for _, n := range sizes {
		name := fmt.Sprintf("stream-%d", n)
		data := randomBytes(t, n)
		WriteStream(t, c, name, data)
		require.Equal(t, data, nonNil(ReadStream(t, c, name)), "Stream of %d bytes", n)
	}
}

// nonNil makes an empty result comparable with an empty slice.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func TestBoundary(t *testing.T, open Opener) {
	c := openContainer(t, open)

	WriteStream(t, c, "exact", randomBytes(t, multifile.Capacity))
	info, err := c.Stat("exact")
	require.NoError(t, err)
	require.Equal(t, 1, info.Blocks)
	require.Equal(t, int64(multifile.Capacity), info.Size)

	WriteStream(t, c, "over", randomBytes(t, multifile.Capacity+1))
	info, err = c.Stat("over")
	require.NoError(t, err)
	require.Equal(t, 2, info.Blocks)
	require.Equal(t, int64(multifile.Capacity+1), info.Size)
}

func TestPersistence(t *testing.T, open Opener) {
	c := openContainer(t, open)

	values := map[string][]byte{}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("stream/%d", i)
		values[name] = randomBytes(t, i*100)
		WriteStream(t, c, name, values[name])
	}
	require.NoError(t, c.Delete("stream/3"))
	delete(values, "stream/3")
	c.Close()

	// Verify with a fresh instance
	c = openContainer(t, open)
	names, err := c.Streams()
	require.NoError(t, err)
	require.Len(t, names, len(values))
	for _, name := range names {
		require.Equal(t, values[name], nonNil(ReadStream(t, c, name)), "Stream %s", name)
	}

	// The free blocks are found again
	free, err := c.FreeBlocks()
	require.NoError(t, err)
	require.NotZero(t, free)

	r, err := c.Check()
	require.NoError(t, err)
	require.True(t, r.Healthy(), "%+v", r)
}

func TestFreeReuse(t *testing.T, open Opener) {
	c := openContainer(t, open)

	WriteStream(t, c, "a", randomBytes(t, 5*multifile.Capacity))
	WriteStream(t, c, "b", randomBytes(t, 10))
	require.NoError(t, c.Delete("a"))

	before := size(t, c)
	data := randomBytes(t, 4*multifile.Capacity+7)
	WriteStream(t, c, "c", data)
	require.Equal(t, before, size(t, c), "The file should not grow")
	require.Equal(t, data, ReadStream(t, c, "c"))
}

func TestOverwrite(t *testing.T, open Opener) {
	c := openContainer(t, open)

	WriteStream(t, c, "x", randomBytes(t, 3*multifile.BlockSize))
	data := randomBytes(t, 100)
	WriteStream(t, c, "x", data)

	names, err := c.Streams()
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, names)
	require.Equal(t, data, ReadStream(t, c, "x"))

	r, err := c.Check()
	require.NoError(t, err)
	require.True(t, r.Healthy(), "%+v", r)
	require.Equal(t, 1, r.Data)
}

func TestDirectoryGrowth(t *testing.T, open Opener) {
	const N = 100
	c := openContainer(t, open)

	// Long names so the directory needs several blocks
	name := func(i int) string { return fmt.Sprintf("%040d", i) }
	for i := 0; i < N; i++ {
		WriteStream(t, c, name(i), []byte(name(i)))
	}

	r, err := c.Check()
	require.NoError(t, err)
	require.True(t, r.Healthy(), "%+v", r)
	require.Greater(t, r.Directory, 1)
	require.Equal(t, N, r.Streams)

	// Delete every other stream
	for i := 0; i < N; i += 2 {
		require.NoError(t, c.Delete(name(i)))
	}
	c.Close()

	c = openContainer(t, open)
	names, err := c.Streams()
	require.NoError(t, err)
	require.Len(t, names, N/2)
	for i := 1; i < N; i += 2 {
		require.Equal(t, name(i), string(ReadStream(t, c, name(i))))
	}

	// Deleted entries leave room that new streams reuse
	WriteStream(t, c, name(0), []byte("again"))
	r2, err := c.Check()
	require.NoError(t, err)
	require.Equal(t, r.Directory, r2.Directory)
}

func TestDelete(t *testing.T, open Opener) {
	c := openContainer(t, open)

	WriteStream(t, c, "keep", []byte("keep"))
	WriteStream(t, c, "drop", randomBytes(t, 2*multifile.Capacity))

	// Deleting an unknown stream does nothing
	require.NoError(t, c.Delete("missing"))

	require.NoError(t, c.Delete("drop"))
	_, err := c.OpenRead("drop")
	require.ErrorIs(t, err, errors.StreamNotFound)

	names, err := c.Streams()
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, names)

	free, err := c.FreeBlocks()
	require.NoError(t, err)
	require.Equal(t, 2, free)
}

func TestClosed(t *testing.T, open Opener) {
	c := openContainer(t, open)
	WriteStream(t, c, "s", []byte("data"))
	c.Close()

	_, err := c.Streams()
	require.ErrorIs(t, err, errors.AlreadyClosed)
	_, err = c.OpenRead("s")
	require.ErrorIs(t, err, errors.AlreadyClosed)
	_, err = c.OpenWrite("s")
	require.ErrorIs(t, err, errors.AlreadyClosed)
	require.ErrorIs(t, c.Delete("s"), errors.AlreadyClosed)
	require.ErrorIs(t, c.Container.Close(), errors.AlreadyClosed)
}
