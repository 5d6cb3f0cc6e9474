// Package boltstore persists resource tables in a bbolt database, one
// bucket per table. Values are msgpack-encoded.
package boltstore

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"fieldbind/internal/resource"
)

// Store is a bbolt-backed resource table store.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open resource store %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tables lists the table names stored in the database.
func (s *Store) Tables() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})

	return names, err
}

// Put writes a single entry.
func (s *Store) Put(table, key string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", table, key, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}

		return b.Put([]byte(key), data)
	})
}

// Save replaces the stored copy of table with its current content in
// tables.
func (s *Store) Save(tables *resource.Tables, table string) error {
	entries := tables.Entries(table)

	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(table)) != nil {
			if err := tx.DeleteBucket([]byte(table)); err != nil {
				return err
			}
		}

		b, err := tx.CreateBucket([]byte(table))
		if err != nil {
			return err
		}

		for k, v := range entries {
			data, err := msgpack.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", table, k, err)
			}

			if err := b.Put([]byte(k), data); err != nil {
				return err
			}
		}

		return nil
	})
}

// Read returns the stored entries of table. A missing table is empty.
func (s *Store) Read(table string) (map[string]any, error) {
	entries := map[string]any{}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, data []byte) error {
			var v any
			if err := msgpack.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("decode %s/%s: %w", table, k, err)
			}

			entries[string(k)] = v

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// LoadInto loads the named tables, or every stored table when names is
// empty, into tables. Subscribers are renotified as by Tables.Load.
func (s *Store) LoadInto(tables *resource.Tables, names ...string) error {
	if len(names) == 0 {
		all, err := s.Tables()
		if err != nil {
			return err
		}

		names = all
	}

	for _, name := range names {
		entries, err := s.Read(name)
		if err != nil {
			return err
		}

		tables.Load(name, entries)
	}

	return nil
}
