// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
)

// BlockInfo describes a block, as found by [Container.Blocks].
type BlockInfo struct {
	Offset int64
	Type   BlockType
	Valid  bool // false if the header could not be decoded
	Size   uint32
	Next   int64
	Owner  string // the stream that references the block, or "" if none
}

// DirectoryOwner is the [BlockInfo.Owner] of directory blocks.
const DirectoryOwner = "(directory)"

// Report is the result of [Container.Check] or [Container.Repair].
type Report struct {
	Size      int64
	Blocks    int
	Free      int
	Directory int
	Data      int
	Invalid   int
	Streams   int

	// CrossLinked lists blocks reached from more than one chain.
	CrossLinked []int64

	// WrongType lists blocks reached from a stream that are not data blocks.
	WrongType []int64

	// Broken lists streams whose chain loops or leaves the device.
	Broken []string

	// Orphans lists blocks that are neither free nor reachable.
	Orphans []int64

	// Released is the number of orphans returned to the free pool.
	Released int
}

// Healthy returns true if the check found no problems.
func (r *Report) Healthy() bool {
	return len(r.CrossLinked) == 0 &&
		len(r.WrongType) == 0 &&
		len(r.Broken) == 0 &&
		len(r.Orphans) == 0
}

// Blocks decodes every block and records which stream references it.
func (c *Container) Blocks() ([]*BlockInfo, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	blocks, _, err := c.survey()
	return blocks, err
}

// Check verifies that every block is either free or belongs to exactly one
// chain.
func (c *Container) Check() (*Report, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	_, r, err := c.survey()
	return r, err
}

// Repair runs [Container.Check] and releases every orphaned block to the free
// pool.
func (c *Container) Repair() (*Report, error) {
	r, err := c.Check()
	if err != nil {
		return nil, err
	}

	for _, offset := range r.Orphans {
		err = c.pool.release(offset)
		if err != nil {
			return r, errors.UnknownError.WithFormat("repair: %w", err)
		}
		r.Released++
	}

	if r.Released > 0 {
		c.logger.Info("Released orphaned blocks", "count", r.Released)
	}
	return r, nil
}

func (c *Container) survey() ([]*BlockInfo, *Report, error) {
	size, err := c.dev.Size()
	if err != nil {
		return nil, nil, errors.IOFailure.WithFormat("check: %w", err)
	}

	r := new(Report)
	r.Size = size

	// Decode every block
	blocks := make([]*BlockInfo, size/BlockSize)
	for i := range blocks {
		b := &BlockInfo{Offset: int64(i) * BlockSize}
		blocks[i] = b
		r.Blocks++

		h, err := readHeader(c.dev, b.Offset)
		switch {
		case err == nil:
			b.Valid = true
			b.Type, b.Size, b.Next = h.Type, h.Size, h.Next
		case errors.Is(err, errors.CorruptHeader):
			r.Invalid++
			continue
		default:
			return nil, nil, errors.UnknownError.WithFormat("check: %w", err)
		}

		switch b.Type {
		case BlockTypeFree:
			r.Free++
		case BlockTypeDirectory:
			r.Directory++
		case BlockTypeFile:
			r.Data++
		}
	}

	for _, offset := range c.dir.offsets() {
		blocks[offset/BlockSize].Owner = DirectoryOwner
	}

	// Walk every stream
	for _, e := range c.dir.entries() {
		r.Streams++
		seen := map[int64]bool{}
		for offset := e.Offset; offset != 0; {
			i := offset / BlockSize
			if i >= int64(len(blocks)) {
				r.Broken = append(r.Broken, e.Name)
				break
			}
			if seen[offset] {
				r.Broken = append(r.Broken, e.Name)
				break
			}
			seen[offset] = true

			b := blocks[i]
			if b.Owner != "" {
				r.CrossLinked = append(r.CrossLinked, offset)
				break
			}
			if !b.Valid || b.Type != BlockTypeFile {
				r.WrongType = append(r.WrongType, offset)
				break
			}

			b.Owner = e.Name
			offset = b.Next
		}
	}

	for _, b := range blocks[1:] {
		if b.Owner == "" && (!b.Valid || b.Type != BlockTypeFree) {
			r.Orphans = append(r.Orphans, b.Offset)
		}
	}

	return blocks, r, nil
}
