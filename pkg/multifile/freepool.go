// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"log/slog"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile/device"
)

// freePool tracks the offsets of free blocks. The most recently released block
// is reused first.
type freePool struct {
	dev     device.Device
	logger  *slog.Logger
	offsets []int64
}

// scanFreeBlocks collects every free block after the directory head. Blocks
// with an invalid header are skipped and left for [Container.Check] to report.
func scanFreeBlocks(dev device.Device, logger *slog.Logger) (*freePool, error) {
	size, err := dev.Size()
	if err != nil {
		return nil, errors.IOFailure.WithFormat("scan free blocks: %w", err)
	}

	p := &freePool{dev: dev, logger: logger}
	for offset := int64(BlockSize); offset+HeaderSize <= size; offset += BlockSize {
		h, err := readHeader(dev, offset)
		switch {
		case err == nil:
			if h.Type == BlockTypeFree {
				p.offsets = append(p.offsets, offset)
			}
		case errors.Is(err, errors.CorruptHeader):
			logger.Debug("Skipping invalid block", "block", offset, "error", err)
		default:
			return nil, errors.UnknownError.WithFormat("scan free blocks: %w", err)
		}
	}

	logger.Debug("Scanned free blocks", "free", len(p.offsets), "size", size)
	return p, nil
}

func (p *freePool) len() int { return len(p.offsets) }

func (p *freePool) acquire() (int64, bool) {
	if len(p.offsets) == 0 {
		return 0, false
	}
	offset := p.offsets[len(p.offsets)-1]
	p.offsets = p.offsets[:len(p.offsets)-1]
	return offset, true
}

// release marks the block as free on disk and adds it to the pool.
func (p *freePool) release(offset int64) error {
	err := writeHeader(p.dev, offset, &header{Type: BlockTypeFree})
	if err != nil {
		return err
	}
	p.offsets = append(p.offsets, offset)
	blocksReleased.Inc()
	p.logger.Debug("Released block", "block", offset)
	return nil
}
