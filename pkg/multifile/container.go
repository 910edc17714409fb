// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

// Container is a set of named streams stored in a single device.
type Container struct {
	config
	dev    device.Device
	dir    *directory
	pool   *freePool
	closed bool
}

// StreamInfo describes a stream.
type StreamInfo struct {
	Name   string
	Offset int64 // offset of the first block
	Size   int64 // total payload bytes
	Blocks int
}

// Open opens the container stored in the file at path, creating it if
// necessary.
func Open(path string, options ...Option) (_ *Container, err error) {
	cfg := newConfig(options)

	var dev device.Device
	if cfg.mmap {
		dev, err = device.OpenMapped(path)
	} else {
		dev, err = device.OpenFile(path)
	}
	if err != nil {
		return nil, errors.IOFailure.WithFormat("open %s: %w", path, err)
	}

	c, err := open(dev, cfg)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("Opened container", "path", path, "mmap", cfg.mmap)
	return c, nil
}

// New opens the container stored in dev. A zero-length device is initialized
// with an empty directory. The container owns dev and closes it on failure.
func New(dev device.Device, options ...Option) (*Container, error) {
	return open(dev, newConfig(options))
}

func open(dev device.Device, cfg *config) (_ *Container, err error) {
	defer closeIfError(&err, dev)

	c := &Container{config: *cfg, dev: dev}

	size, err := dev.Size()
	if err != nil {
		return nil, errors.IOFailure.WithFormat("open container: %w", err)
	}

	if size > 0 && size < BlockSize {
		return nil, errors.CorruptHeader.WithFormat("open container: device holds %d bytes, less than one block", size)
	}

	if size == 0 {
		err = dev.Truncate(BlockSize)
		if err != nil {
			return nil, errors.IOFailure.WithFormat("initialize container: %w", err)
		}
		c.dir, err = newDirectory(dev, c.logger)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("initialize container: %w", err)
		}
		c.pool = &freePool{dev: dev, logger: c.logger}
		c.logger.Debug("Initialized container")

	} else {
		c.dir, err = loadDirectory(dev, c.logger)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
		c.pool, err = scanFreeBlocks(dev, c.logger)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
	}

	containersOpen.Inc()
	return c, nil
}

// Close closes the container and its device. Closing a closed container
// returns [errors.AlreadyClosed].
func (c *Container) Close() error {
	if c.closed {
		return errors.AlreadyClosed.With("container is already closed")
	}
	c.closed = true
	containersOpen.Dec()

	err := c.dev.Close()
	if err != nil {
		return errors.IOFailure.WithFormat("close container: %w", err)
	}
	c.logger.Debug("Closed container")
	return nil
}

func (c *Container) checkOpen() error {
	if c.closed {
		return errors.AlreadyClosed.Skip(1).With("container is closed")
	}
	return nil
}

// Streams returns the sorted names of every stream.
func (c *Container) Streams() ([]string, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return c.dir.names(), nil
}

// OpenRead opens the named stream for reading.
func (c *Container) OpenRead(name string) (*Reader, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	offset, ok := c.dir.lookup(name)
	if !ok {
		return nil, errors.StreamNotFound.WithFormat("stream %q not found", name)
	}
	return newReader(c.dev, name, offset), nil
}

// OpenWrite creates the named stream, replacing any existing stream with the
// same name, and opens it for writing. The stream is listed as soon as
// OpenWrite returns.
func (c *Container) OpenWrite(name string) (*Writer, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	err := c.Delete(name)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}

	offset, err := c.allocate(true)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("create %q: %w", name, err)
	}

	err = writeHeader(c.dev, offset, &header{Type: BlockTypeFile})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("create %q: %w", name, err)
	}

	err = c.dir.insert(name, offset, func() (int64, error) { return c.allocate(true) })
	if err != nil {
		return nil, errors.UnknownError.WithFormat("create %q: %w", name, err)
	}

	c.logger.Debug("Created stream", "stream", name, "block", offset)

	reuse := c.policy == ReuseFreeBlocks
	return newWriter(c.dev, name, offset, func() (int64, error) { return c.allocate(reuse) }), nil
}

// Delete removes the named stream and releases its blocks. Deleting a stream
// that does not exist does nothing.
func (c *Container) Delete(name string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	offset, ok, err := c.dir.remove(name)
	if err != nil {
		return errors.UnknownError.WithFormat("delete %q: %w", name, err)
	}
	if !ok {
		return nil
	}

	var released int
	err = c.walkChain(offset, func(offset int64, h *header) error {
		// The walk has already read the link, so the block can be
		// overwritten
		released++
		return c.pool.release(offset)
	})
	if err != nil {
		return errors.UnknownError.WithFormat("delete %q: %w", name, err)
	}

	c.logger.Debug("Deleted stream", "stream", name, "released", released)
	return nil
}

// Stat returns information about the named stream.
func (c *Container) Stat(name string) (*StreamInfo, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	offset, ok := c.dir.lookup(name)
	if !ok {
		return nil, errors.StreamNotFound.WithFormat("stream %q not found", name)
	}

	info := &StreamInfo{Name: name, Offset: offset}
	err := c.walkChain(offset, func(_ int64, h *header) error {
		info.Size += int64(h.Size)
		info.Blocks++
		return nil
	})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("stat %q: %w", name, err)
	}
	return info, nil
}

// FreeBlocks returns the number of blocks in the free pool.
func (c *Container) FreeBlocks() (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	return c.pool.len(), nil
}

// Size returns the size of the device.
func (c *Container) Size() (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	size, err := c.dev.Size()
	if err != nil {
		return 0, errors.IOFailure.Wrap(err)
	}
	return size, nil
}

// Sync flushes the device.
func (c *Container) Sync() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	err := c.dev.Sync()
	if err != nil {
		return errors.IOFailure.WithFormat("sync: %w", err)
	}
	return nil
}

// allocate returns the offset of an unused block, taking it from the free
// pool if fromPool is set and the pool is not empty, or else extending the
// device.
func (c *Container) allocate(fromPool bool) (int64, error) {
	if fromPool {
		if offset, ok := c.pool.acquire(); ok {
			blocksAllocated.WithLabelValues("free").Inc()
			c.logger.Debug("Allocated block", "block", offset, "source", "free")
			return offset, nil
		}
	}

	size, err := c.dev.Size()
	if err != nil {
		return 0, errors.IOFailure.WithFormat("allocate: %w", err)
	}

	// Round up so every block stays aligned
	offset := (size + BlockSize - 1) / BlockSize * BlockSize
	err = c.dev.Truncate(offset + BlockSize)
	if err != nil {
		return 0, errors.IOFailure.WithFormat("allocate: %w", err)
	}

	blocksAllocated.WithLabelValues("append").Inc()
	c.logger.Debug("Allocated block", "block", offset, "source", "append")
	return offset, nil
}

// walkChain calls fn for each block of the data chain starting at offset.
// The link is read before fn is called, so fn may overwrite the block.
func (c *Container) walkChain(offset int64, fn func(offset int64, h *header) error) error {
	seen := map[int64]bool{}
	for offset != 0 {
		if seen[offset] {
			return errors.CorruptHeader.WithFormat("block chain loops back to block %d", offset)
		}
		seen[offset] = true

		h, err := readHeader(c.dev, offset)
		if err != nil {
			return errors.UnknownError.Wrap(err)
		}
		if h.Type != BlockTypeFile {
			return errors.CorruptHeader.WithFormat("block %d is a %v block", offset, h.Type)
		}

		next := h.Next
		err = fn(offset, h)
		if err != nil {
			return errors.UnknownError.Wrap(err)
		}
		offset = next
	}
	return nil
}
