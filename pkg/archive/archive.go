// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package archive copies the streams of a container to and from an embedded
// key-value store. Each stream is one record, keyed by the stream name.
package archive

import (
	"io"
	"path/filepath"
	"strings"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	"gitlab.com/accumulatenetwork/multifile/pkg/multifile"
)

// Store is a key-value store that holds exported streams.
type Store interface {
	Put(name string, value []byte) error
	ForEach(fn func(name string, value []byte) error) error
	Close() error
}

type Format string

const (
	Bolt    Format = "bolt"
	LevelDB Format = "leveldb"
	Badger  Format = "badger"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Bolt, LevelDB, Badger:
		return f, nil
	}
	return "", errors.BadRequest.WithFormat("unknown archive format %q", s)
}

// FormatOf infers the format from the extension of path: .bolt or .db for
// bolt, .ldb or .leveldb for leveldb, and .badger for badger.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bolt", ".db":
		return Bolt, nil
	case ".ldb", ".leveldb":
		return LevelDB, nil
	case ".badger":
		return Badger, nil
	}
	return "", errors.BadRequest.WithFormat("cannot determine the archive format of %q", path)
}

// Open opens or creates a store. If format is empty it is inferred from the
// path.
func Open(format Format, path string) (Store, error) {
	if format == "" {
		var err error
		format, err = FormatOf(path)
		if err != nil {
			return nil, err
		}
	}

	switch format {
	case Bolt:
		return OpenBolt(path)
	case LevelDB:
		return OpenLevelDB(path)
	case Badger:
		return OpenBadger(path)
	}
	return nil, errors.BadRequest.WithFormat("unknown archive format %q", format)
}

// Export writes every stream of the container to the store and returns the
// number of streams written.
func Export(c *multifile.Container, s Store) (int, error) {
	names, err := c.Streams()
	if err != nil {
		return 0, errors.UnknownError.Wrap(err)
	}

	for i, name := range names {
		r, err := c.OpenRead(name)
		if err != nil {
			return i, errors.UnknownError.WithFormat("export %q: %w", name, err)
		}

		b, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return i, errors.UnknownError.WithFormat("export %q: %w", name, err)
		}

		err = s.Put(name, b)
		if err != nil {
			return i, errors.UnknownError.WithFormat("export %q: %w", name, err)
		}
	}
	return len(names), nil
}

// Import creates a stream in the container for every record in the store,
// replacing existing streams with the same name, and returns the number of
// streams created.
func Import(s Store, c *multifile.Container) (int, error) {
	var n int
	err := s.ForEach(func(name string, value []byte) error {
		w, err := c.OpenWrite(name)
		if err != nil {
			return errors.UnknownError.WithFormat("import %q: %w", name, err)
		}
		defer w.Close()

		_, err = w.Write(value)
		if err != nil {
			return errors.UnknownError.WithFormat("import %q: %w", name, err)
		}
		n++
		return nil
	})
	return n, err
}
