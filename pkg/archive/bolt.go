// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package archive

import (
	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var streamsBucket = []byte("streams")

// BoltStore stores streams in the "streams" bucket of a bolt database.
type BoltStore struct {
	bolt *bolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.IOFailure.WithFormat("open %q: %w", path, err)
	}
	return &BoltStore{db}, nil
}

func (s *BoltStore) Put(name string, value []byte) error {
	return s.bolt.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(streamsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), value)
	})
}

func (s *BoltStore) ForEach(fn func(name string, value []byte) error) error {
	return s.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(streamsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			// Values are only valid during the transaction
			u := make([]byte, len(v))
			copy(u, v)
			return fn(string(k), u)
		})
	})
}

func (s *BoltStore) Close() error {
	return s.bolt.Close()
}
