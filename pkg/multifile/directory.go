// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"log/slog"
	"sort"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

// directory is the chain of directory blocks, starting at offset zero, that
// maps stream names to the offset of their first block.
type directory struct {
	dev    device.Device
	logger *slog.Logger
	blocks []*directoryBlock
}

func newDirectory(dev device.Device, logger *slog.Logger) (*directory, error) {
	d := &directory{dev: dev, logger: logger}
	d.blocks = []*directoryBlock{{offset: 0}}
	err := d.blocks[0].write(dev)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func loadDirectory(dev device.Device, logger *slog.Logger) (*directory, error) {
	d := &directory{dev: dev, logger: logger}
	names := map[string]bool{}
	seen := map[int64]bool{}

	for offset := int64(0); ; {
		if seen[offset] {
			return nil, errors.CorruptHeader.WithFormat("directory chain loops back to block %d", offset)
		}
		seen[offset] = true

		b, err := readBlock(dev, offset)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("load directory: %w", err)
		}
		dir, ok := b.(*directoryBlock)
		if !ok {
			return nil, errors.CorruptHeader.WithFormat("load directory: block %d is a %v block", offset, b.Type())
		}

		for _, e := range dir.entries {
			if names[e.Name] {
				return nil, errors.CorruptHeader.WithFormat("load directory: stream %q appears twice", e.Name)
			}
			names[e.Name] = true
		}

		d.blocks = append(d.blocks, dir)
		if dir.next == 0 {
			break
		}
		offset = dir.next
	}

	logger.Debug("Loaded directory", "blocks", len(d.blocks), "streams", len(names))
	return d, nil
}

func (d *directory) lookup(name string) (int64, bool) {
	for _, b := range d.blocks {
		for _, e := range b.entries {
			if e.Name == name {
				return e.Offset, true
			}
		}
	}
	return 0, false
}

func (d *directory) names() []string {
	var names []string
	for _, b := range d.blocks {
		for _, e := range b.entries {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (d *directory) entries() []dirEntry {
	var entries []dirEntry
	for _, b := range d.blocks {
		entries = append(entries, b.entries...)
	}
	return entries
}

func (d *directory) offsets() []int64 {
	offsets := make([]int64, len(d.blocks))
	for i, b := range d.blocks {
		offsets[i] = b.offset
	}
	return offsets
}

// insert records the stream in the first directory block with room for it.
// If there is none, insert allocates a new block and links it from the tail.
// The caller must ensure the name is not already present.
func (d *directory) insert(name string, offset int64, allocate func() (int64, error)) error {
	for _, b := range d.blocks {
		if !b.fits(name) {
			continue
		}

		b.entries = append(b.entries, dirEntry{name, offset})
		err := b.write(d.dev)
		if err != nil {
			b.entries = b.entries[:len(b.entries)-1]
			return err
		}
		return nil
	}

	at, err := allocate()
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	// Write the new block before linking it
	b := &directoryBlock{offset: at, entries: []dirEntry{{name, offset}}}
	err = b.write(d.dev)
	if err != nil {
		return err
	}

	tail := d.blocks[len(d.blocks)-1]
	tail.next = at
	err = tail.write(d.dev)
	if err != nil {
		tail.next = 0
		return err
	}

	d.blocks = append(d.blocks, b)
	d.logger.Debug("Extended directory", "block", at, "blocks", len(d.blocks))
	return nil
}

// remove deletes the stream's entry and returns its offset. Emptied blocks
// stay in the chain.
func (d *directory) remove(name string) (int64, bool, error) {
	for _, b := range d.blocks {
		for i, e := range b.entries {
			if e.Name != name {
				continue
			}

			old := b.entries
			b.entries = append(append([]dirEntry{}, old[:i]...), old[i+1:]...)
			err := b.write(d.dev)
			if err != nil {
				b.entries = old
				return 0, false, err
			}
			return e.Offset, true, nil
		}
	}
	return 0, false, nil
}
