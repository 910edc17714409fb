// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package multifile stores many named byte streams in a single file.
//
// The file is divided into 512-byte blocks. Each block starts with a 14-byte
// big-endian header (type, payload size, offset of the next block) and the
// rest is payload. Block zero is the head of the directory, a chain of
// directory blocks that map each stream name to the offset of its first
// block. A stream is a chain of data blocks. Deleted blocks are marked free
// and reused by later allocations; the set of free blocks is rebuilt by
// scanning the file when it is opened.
//
// A [Container] is not safe for concurrent use.
package multifile
