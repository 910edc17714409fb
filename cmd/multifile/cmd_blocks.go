// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	. "gitlab.com/accumulatenetwork/multifile/internal/util/cmd"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile"
)

var cmdBlocks = &cobra.Command{
	Use:   "blocks <file>",
	Short: "List every block of a container",
	Args:  cobra.ExactArgs(1),
	Run:   blocks,
}

var cmdCheck = &cobra.Command{
	Use:   "check <file>",
	Short: "Verify the block chains of a container",
	Args:  cobra.ExactArgs(1),
	Run:   check,
}

var flagCheck struct {
	Repair  bool
	Verbose bool
}

func init() {
	cmdMain.AddCommand(cmdBlocks, cmdCheck)
	cmdCheck.Flags().BoolVar(&flagCheck.Repair, "repair", false, "Release orphaned blocks")
	cmdCheck.Flags().BoolVarP(&flagCheck.Verbose, "verbose", "v", false, "Dump the full report")
}

func blocks(cmd *cobra.Command, args []string) {
	c := openContainer(args[0])
	defer c.Close()

	blocks, err := c.Blocks()
	Check(err)

	tw := newTable(cmd.OutOrStdout(), "Offset", "Type", "Size", "Next", "Owner")
	for _, b := range blocks {
		typ := b.Type.String()
		if !b.Valid {
			typ = "invalid"
		}
		next := "-"
		if b.Next != 0 {
			next = strconv.FormatInt(b.Next, 10)
		}
		tw.Append([]string{
			strconv.FormatInt(b.Offset, 10),
			typ,
			strconv.FormatUint(uint64(b.Size), 10),
			next,
			b.Owner,
		})
	}
	tw.Render()
}

func check(cmd *cobra.Command, args []string) {
	c := openContainer(args[0])
	defer c.Close()

	var r *multifile.Report
	var err error
	if flagCheck.Repair {
		r, err = c.Repair()
	} else {
		r, err = c.Check()
	}
	Check(err)

	printReport(cmd.OutOrStdout(), r)
	if flagCheck.Verbose {
		spew.Fdump(cmd.OutOrStdout(), r)
	}
	if unresolved(r) > 0 {
		_ = c.Close()
		Exit(1)
	}
}

// unresolved counts the problems a repair did not fix.
func unresolved(r *multifile.Report) int {
	return len(r.CrossLinked) + len(r.WrongType) + len(r.Broken) + len(r.Orphans) - r.Released
}

func printReport(w io.Writer, r *multifile.Report) {
	bad := color.New(color.FgRed)
	good := color.New(color.FgGreen)
	if !IsTerminal(w) {
		bad.DisableColor()
		good.DisableColor()
	}

	fmt.Fprintf(w, "Size:      %s\n", humanize.IBytes(uint64(r.Size)))
	fmt.Fprintf(w, "Blocks:    %d (%d directory, %d data, %d free, %d invalid)\n", r.Blocks, r.Directory, r.Data, r.Free, r.Invalid)
	fmt.Fprintf(w, "Streams:   %d\n", r.Streams)

	problem := func(label string, n int, detail interface{}) {
		if n > 0 {
			bad.Fprintf(w, "%-10s %d %v\n", label+":", n, detail)
		}
	}
	problem("Cross", len(r.CrossLinked), r.CrossLinked)
	problem("Mistyped", len(r.WrongType), r.WrongType)
	problem("Broken", len(r.Broken), r.Broken)
	problem("Orphans", len(r.Orphans), r.Orphans)

	if r.Released > 0 {
		good.Fprintf(w, "Released %d orphaned blocks\n", r.Released)
	}
	if unresolved(r) == 0 {
		good.Fprintln(w, "OK")
	}
}
