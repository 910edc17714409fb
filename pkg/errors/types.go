// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import "fmt"

// Status is an error status code.
type Status uint64

const (
	// OK means the operation succeeded.
	OK Status = 200

	// BadRequest means the caller supplied an invalid argument, such as a
	// stream name that cannot be stored.
	BadRequest Status = 400

	// StreamNotFound means a read was requested for an unknown stream.
	StreamNotFound Status = 404

	// AlreadyClosed means the container or stream has been closed.
	AlreadyClosed Status = 410

	// MarkNotSet means a reader was reset without a prior mark.
	MarkNotSet Status = 428

	// InternalError means an invariant of the engine was violated.
	InternalError Status = 500

	// UnknownError means the cause of the failure is not known.
	UnknownError Status = 501

	// IOFailure means a read, write, truncate, or sync of the underlying
	// device failed.
	IOFailure Status = 502

	// CorruptHeader means on-disk data does not decode to a valid structure.
	CorruptHeader Status = 520
)

var statusNames = map[Status]string{
	OK:             "ok",
	BadRequest:     "bad request",
	StreamNotFound: "stream not found",
	AlreadyClosed:  "already closed",
	MarkNotSet:     "mark not set",
	InternalError:  "internal error",
	UnknownError:   "unknown error",
	IOFailure:      "i/o failure",
	CorruptHeader:  "corrupt header",
}

// String returns the name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint64(s))
}

// Error is an error with a [Status] code, an optional cause, and the call
// sites at which it was created and wrapped.
type Error struct {
	Message   string
	Code      Status
	Cause     *Error
	CallStack []*CallSite
}

// CallSite records where an error was created or wrapped.
type CallSite struct {
	FuncName string
	File     string
	Line     int64
}
