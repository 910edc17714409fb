// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package pool is a typed wrapper around [sync.Pool].
package pool

import "sync"

// Pool holds reusable values of type T.
type Pool[T any] sync.Pool

// New returns a pool that allocates a new T when empty.
func New[T any]() *Pool[*T] {
	return (*Pool[*T])(&sync.Pool{New: func() any { return new(T) }})
}

func (p *Pool[T]) Get() T {
	return (*sync.Pool)(p).Get().(T)
}

func (p *Pool[T]) Put(v T) {
	(*sync.Pool)(p).Put(v)
}
