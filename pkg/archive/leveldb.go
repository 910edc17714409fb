// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package archive

import (
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
)

// LevelDBStore stores streams in a leveldb database.
type LevelDBStore struct {
	leveldb *leveldb.DB
}

func OpenLevelDB(path string) (*LevelDBStore, error) {
	// Make sure all directories exist
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.IOFailure.WithFormat("create %q: %w", path, err)
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.IOFailure.WithFormat("open %q: %w", path, err)
	}
	return &LevelDBStore{db}, nil
}

func (s *LevelDBStore) Put(name string, value []byte) error {
	return s.leveldb.Put([]byte(name), value, nil)
}

func (s *LevelDBStore) ForEach(fn func(name string, value []byte) error) error {
	it := s.leveldb.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		value := make([]byte, len(it.Value()))
		copy(value, it.Value())
		err := fn(string(it.Key()), value)
		if err != nil {
			return err
		}
	}
	it.Release()
	return it.Error()
}

func (s *LevelDBStore) Close() error {
	return s.leveldb.Close()
}
