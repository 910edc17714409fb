// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	require.NoError(t, IOFailure.Wrap(nil))
}

func TestCodeIsPreserved(t *testing.T) {
	err := IOFailure.WithFormat("read header at %d: %w", 512, io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, IOFailure)
	require.Equal(t, IOFailure, Code(err))
	require.Equal(t, "read header at 512: unexpected EOF", err.Error())

	// Wrapping with an unknown code keeps the inner code
	wrapped := UnknownError.Wrap(err)
	require.ErrorIs(t, wrapped, IOFailure)
	require.Equal(t, IOFailure, Code(wrapped))
}

func TestWithFormatWithoutCause(t *testing.T) {
	err := StreamNotFound.WithFormat("stream %q not found", "foo")
	require.ErrorIs(t, err, StreamNotFound)
	require.NotErrorIs(t, err, AlreadyClosed)
	require.Nil(t, err.Cause)
	require.Equal(t, `stream "foo" not found`, err.Error())
}

func TestCauseCode(t *testing.T) {
	inner := CorruptHeader.With("bad type")
	outer := IOFailure.WithCauseAndFormat(inner, "load directory")
	require.Equal(t, IOFailure, Code(outer))
	require.ErrorIs(t, outer, CorruptHeader)
}

func TestStatusNames(t *testing.T) {
	require.Equal(t, "mark not set", MarkNotSet.String())
	require.Equal(t, "status(999)", Status(999).String())
	require.True(t, StreamNotFound.IsClientError())
	require.True(t, CorruptHeader.IsServerError())
	require.True(t, OK.Success())
}

func TestPrintCallStack(t *testing.T) {
	if !trackLocation {
		t.Skip("Location tracking is disabled")
	}

	err := AlreadyClosed.With("container closed")
	s := fmt.Sprintf("%+v", err)
	require.True(t, strings.HasPrefix(s, "container closed\n"), s)
	require.Contains(t, s, "errors_test.go")
	require.Equal(t, "container closed", fmt.Sprintf("%v", err))
}
