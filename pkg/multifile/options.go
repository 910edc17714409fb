// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package multifile

import (
	"log/slog"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
)

// AllocationPolicy determines where continuation blocks come from when a
// stream grows past its current tail block. The first block of a stream is
// always taken from the free pool when possible.
type AllocationPolicy int

const (
	// ReuseFreeBlocks takes continuation blocks from the free pool before
	// extending the file.
	ReuseFreeBlocks AllocationPolicy = iota

	// AppendContinuations always extends the file for continuation blocks.
	AppendContinuations
)

func (p AllocationPolicy) String() string {
	switch p {
	case ReuseFreeBlocks:
		return "reuse"
	case AppendContinuations:
		return "append"
	default:
		return "invalid"
	}
}

// ParseAllocationPolicy parses "reuse" or "append".
func ParseAllocationPolicy(s string) (AllocationPolicy, error) {
	switch s {
	case "reuse", "":
		return ReuseFreeBlocks, nil
	case "append":
		return AppendContinuations, nil
	default:
		return 0, errors.BadRequest.WithFormat("invalid allocation policy %q", s)
	}
}

type config struct {
	logger *slog.Logger
	policy AllocationPolicy
	mmap   bool
}

type Option func(*config)

// WithLogger sets the logger. The default is [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithAllocationPolicy(policy AllocationPolicy) Option {
	return func(c *config) {
		c.policy = policy
	}
}

// WithMemoryMap makes [Open] memory-map the file. It has no effect on [New].
func WithMemoryMap() Option {
	return func(c *config) {
		c.mmap = true
	}
}

func newConfig(options []Option) *config {
	c := new(config)
	for _, o := range options {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("module", "multifile")
	return c
}
