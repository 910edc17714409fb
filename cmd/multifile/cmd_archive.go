// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	. "gitlab.com/accumulatenetwork/multifile/internal/util/cmd"
	"gitlab.com/accumulatenetwork/multifile/pkg/archive"
)

var cmdExport = &cobra.Command{
	Use:   "export <file> <store>",
	Short: "Copy every stream into a bolt, leveldb, or badger database",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := openContainer(args[0])
		defer c.Close()

		s := openStore(args[1])
		defer s.Close()

		n, err := archive.Export(c, s)
		Check(err)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d streams\n", n)
	},
}

var cmdImport = &cobra.Command{
	Use:   "import <store> <file>",
	Short: "Create a stream for every record of a bolt, leveldb, or badger database",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore(args[0])
		defer s.Close()

		c := openContainer(args[1])
		defer c.Close()

		n, err := archive.Import(s, c)
		Check(err)
		Check(c.Sync())
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d streams\n", n)
	},
}

var flagArchive struct {
	Format string
}

func init() {
	cmdMain.AddCommand(cmdExport, cmdImport)
	for _, cmd := range []*cobra.Command{cmdExport, cmdImport} {
		cmd.Flags().StringVar(&flagArchive.Format, "format", "", "Database format (bolt, leveldb, badger); inferred from the extension if omitted")
	}
}

func openStore(path string) archive.Store {
	format := flagArchive.Format
	if format == "" {
		format = cfg.ArchiveFmt
	}

	var f archive.Format
	if format != "" {
		var err error
		f, err = archive.ParseFormat(format)
		Check(err)
	}

	s, err := archive.Open(f, path)
	Checkf(err, "open %s", path)
	return s
}
