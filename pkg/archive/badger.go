// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package archive

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
)

// BadgerStore stores streams in a badger database.
type BadgerStore struct {
	badger *badger.DB
}

func OpenBadger(path string) (*BadgerStore, error) {
	// Make sure all directories exist
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.IOFailure.WithFormat("create %q: %w", path, err)
	}

	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(slogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.IOFailure.WithFormat("open %q: %w", path, err)
	}
	return &BadgerStore{db}, nil
}

func (s *BadgerStore) Put(name string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), value)
	})
}

func (s *BadgerStore) ForEach(fn func(name string, value []byte) error) error {
	return s.badger.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			err = fn(string(item.Key()), value)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	return s.badger.Close()
}

// slogger routes badger's log output to slog.
type slogger struct{}

func (l slogger) format(format string, args ...interface{}) string {
	s := fmt.Sprintf(format, args...)
	return strings.TrimRight(s, "\n")
}

func (l slogger) Errorf(format string, args ...interface{}) {
	slog.Error(l.format(format, args...), "module", "badger")
}

func (l slogger) Warningf(format string, args ...interface{}) {
	slog.Warn(l.format(format, args...), "module", "badger")
}

func (l slogger) Infof(format string, args ...interface{}) {
	slog.Info(l.format(format, args...), "module", "badger")
}

func (l slogger) Debugf(format string, args ...interface{}) {
	slog.Debug(l.format(format, args...), "module", "badger")
}
