/*
 * Copyright 2024 The EdgeCache Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Store is the durable record store backing the write queue. Records of each
// operation type live in their own bucket; every read or write is its own
// transaction.
type Store struct {
	filename string
	dbh      *bbolt.DB
}

// Entry pairs a Record with the store key under which it is persisted
type Entry struct {
	Key    string
	Record *Record
}

// OpenStore opens (creating if absent) the bbolt database at the provided
// path and ensures a bucket exists for each of the provided operation types
func OpenStore(filename string, opTypes []string) (*Store, error) {
	dbh, err := bbolt.Open(filename, 0o644, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = dbh.Update(func(tx *bbolt.Tx) error {
		for _, t := range opTypes {
			if _, err2 := tx.CreateBucketIfNotExists([]byte(t)); err2 != nil {
				return fmt.Errorf("create bucket: %w", err2)
			}
		}
		return nil
	})
	if err != nil {
		dbh.Close()
		return nil, err
	}
	return &Store{filename: filename, dbh: dbh}, nil
}

// Insert persists the record before returning control to the caller
func (s *Store) Insert(rec *Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	key := rec.storeKey()
	err = s.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(rec.Type))
		if b == nil {
			return fmt.Errorf("unknown operation type: %s", rec.Type)
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// List returns all records of the provided operation type in creation order
func (s *Store) List(opType string) ([]Entry, error) {
	var entries []Entry
	err := s.dbh.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(opType))
		if b == nil {
			return fmt.Errorf("unknown operation type: %s", opType)
		}
		return b.ForEach(func(k, v []byte) error {
			rec := &Record{}
			if err := json.Unmarshal(v, rec); err != nil {
				return err
			}
			entries = append(entries, Entry{Key: string(k), Record: rec})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes the record stored under the provided key; deleting a missing
// record is not an error, which makes overlapping drain passes harmless
func (s *Store) Delete(opType, key string) error {
	return s.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(opType))
		if b == nil {
			return fmt.Errorf("unknown operation type: %s", opType)
		}
		return b.Delete([]byte(key))
	})
}

// Count returns the number of records of the provided operation type
func (s *Store) Count(opType string) (int, error) {
	var n int
	err := s.dbh.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(opType))
		if b == nil {
			return fmt.Errorf("unknown operation type: %s", opType)
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the store's database handle
func (s *Store) Close() error {
	if s.dbh == nil {
		return nil
	}
	return s.dbh.Close()
}
