// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	. "gitlab.com/accumulatenetwork/multifile/internal/util/cmd"
)

var cmdInit = &cobra.Command{
	Use:   "init <file>",
	Short: "Create an empty container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(args[0]); err == nil {
			Fatalf("%s already exists", args[0])
		}
		c := openContainer(args[0])
		Check(c.Close())
	},
}

var cmdList = &cobra.Command{
	Use:     "ls <file>",
	Aliases: []string{"list"},
	Short:   "List the streams of a container",
	Args:    cobra.ExactArgs(1),
	Run:     list,
}

var cmdCat = &cobra.Command{
	Use:   "cat <file> <stream>",
	Short: "Write a stream to stdout",
	Args:  cobra.ExactArgs(2),
	Run:   cat,
}

var cmdPut = &cobra.Command{
	Use:   "put <file> <stream> [source]",
	Short: "Create a stream from a file or stdin",
	Args:  cobra.RangeArgs(2, 3),
	Run:   put,
}

var cmdRemove = &cobra.Command{
	Use:     "rm <file> <stream>...",
	Aliases: []string{"remove"},
	Short:   "Delete streams",
	Args:    cobra.MinimumNArgs(2),
	Run:     remove,
}

var cmdStat = &cobra.Command{
	Use:   "stat <file> <stream>",
	Short: "Describe a stream",
	Args:  cobra.ExactArgs(2),
	Run:   stat,
}

var flagList struct {
	Long bool
}

func init() {
	cmdMain.AddCommand(cmdInit, cmdList, cmdCat, cmdPut, cmdRemove, cmdStat)
	cmdList.Flags().BoolVarP(&flagList.Long, "long", "l", false, "Show the size and location of each stream")
}

func list(cmd *cobra.Command, args []string) {
	c := openContainer(args[0])
	defer c.Close()

	names, err := c.Streams()
	Check(err)

	out := cmd.OutOrStdout()
	if !flagList.Long {
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return
	}

	tw := newTable(out, "Name", "Size", "Blocks", "Offset")
	for _, name := range names {
		info, err := c.Stat(name)
		Checkf(err, "stat %s", name)
		tw.Append([]string{
			name,
			humanize.IBytes(uint64(info.Size)),
			strconv.Itoa(info.Blocks),
			strconv.FormatInt(info.Offset, 10),
		})
	}
	tw.Render()
}

func cat(cmd *cobra.Command, args []string) {
	c := openContainer(args[0])
	defer c.Close()

	r, err := c.OpenRead(args[1])
	Check(err)
	defer r.Close()

	_, err = io.Copy(cmd.OutOrStdout(), r)
	Checkf(err, "read %s", args[1])
}

func put(cmd *cobra.Command, args []string) {
	src := cmd.InOrStdin()
	if len(args) > 2 {
		f, err := os.Open(args[2])
		Check(err)
		defer f.Close()
		src = f
	}

	c := openContainer(args[0])
	defer c.Close()

	w, err := c.OpenWrite(args[1])
	Check(err)
	defer w.Close()

	n, err := io.Copy(w, src)
	Checkf(err, "write %s", args[1])
	Check(c.Sync())
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", humanize.IBytes(uint64(n)), args[1])
}

func remove(_ *cobra.Command, args []string) {
	c := openContainer(args[0])
	defer c.Close()

	for _, name := range args[1:] {
		if _, err := c.Stat(name); err != nil {
			Warnf("%v", err)
			continue
		}
		Checkf(c.Delete(name), "delete %s", name)
	}
	Check(c.Sync())
}

func stat(cmd *cobra.Command, args []string) {
	c := openContainer(args[0])
	defer c.Close()

	info, err := c.Stat(args[1])
	Check(err)

	tw := newTable(cmd.OutOrStdout())
	tw.Append([]string{"Name", info.Name})
	tw.Append([]string{"Size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(info.Size)), info.Size)})
	tw.Append([]string{"Blocks", strconv.Itoa(info.Blocks)})
	tw.Append([]string{"Offset", strconv.FormatInt(info.Offset, 10)})
	tw.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	if len(header) > 0 {
		tw.SetHeader(header)
	}
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return tw
}
