// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

// TestWriter writes each line to the test log.
type TestWriter struct {
	Test testing.TB
}

var _ io.Writer = (*TestWriter)(nil)

func (l *TestWriter) Write(b []byte) (int, error) {
	l.Test.Helper()
	l.Test.Log(strings.TrimSuffix(string(b), "\n"))
	return len(b), nil
}

// TestLogger returns a debug level logger that writes to the test log.
func TestLogger(t testing.TB) *slog.Logger {
	h, err := NewHandler("plain", &TestWriter{Test: t}, []Rule{{Level: slog.LevelDebug}})
	if err != nil {
		t.Fatal(err)
	}
	return slog.New(h)
}
