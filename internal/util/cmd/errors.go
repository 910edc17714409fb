// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Stderr is where diagnostics are written.
var Stderr io.Writer = os.Stderr

// Exit is called by Fatalf.
var Exit = os.Exit

func Fatalf(format string, args ...interface{}) {
	fmt.Fprint(Stderr, paint(color.FgRed, "Error: "+format+"\n", args...))
	Exit(1)
}

func Check(err error) {
	if err != nil {
		Fatalf("%v", err)
	}
}

func Checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		Fatalf(format+": %v", append(otherArgs, err)...)
	}
}

func Warnf(format string, args ...interface{}) {
	fmt.Fprint(Stderr, paint(color.FgYellow, "WARNING: "+format+"\n", args...))
}

// IsTerminal returns true if w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint formats the message and colors it if Stderr is a terminal.
func paint(attr color.Attribute, format string, args ...interface{}) string {
	if !IsTerminal(Stderr) {
		return fmt.Sprintf(format, args...)
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprintf(format, args...)
}
