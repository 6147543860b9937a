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

// Package badger is the BadgerDB implementation of the Cache
package badger

import (
	"time"

	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/providers"
	"github.com/messmate/edgecache/pkg/cache/status"

	"github.com/dgraph-io/badger"
)

// CacheClient implements the cache.Client interface
var _ cache.Client = &CacheClient{}

// CacheClient describes a Badger CacheClient
type CacheClient struct {
	Name   string
	Config *options.Options
	dbh    *badger.DB
}

// New returns a new badger cache as a Cache Interface type
func New(name string, cfg *options.Options) *CacheClient {
	if cfg == nil {
		cfg = options.New()
	}
	return &CacheClient{Name: name, Config: cfg}
}

// Configuration returns the Configuration for the CacheClient
func (c *CacheClient) Configuration() *options.Options {
	return c.Config
}

// Connect opens the configured Badger key-value store
func (c *CacheClient) Connect() error {
	opts := badger.DefaultOptions(c.Config.Badger.Directory)
	opts.ValueDir = c.Config.Badger.ValueDirectory
	opts.Logger = nil

	var err error
	c.dbh, err = badger.Open(opts)
	return err
}

// Store places the data into the Badger Cache using the provided Key and TTL
func (c *CacheClient) Store(cacheKey string, data []byte, ttl time.Duration) error {
	cache.ObserveCacheOperation(c.Name, providers.Badger, "set", "none", len(data))
	return c.dbh.Update(func(txn *badger.Txn) error {
		if ttl > 0 {
			return txn.SetEntry(badger.NewEntry([]byte(cacheKey), data).WithTTL(ttl))
		}
		return txn.Set([]byte(cacheKey), data)
	})
}

// Retrieve gets data from the Badger Cache using the provided Key
// because Badger manages Object Expiration internally, a TTL is not consulted here
func (c *CacheClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	var data []byte
	err := c.dbh.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == nil {
		cache.ObserveCacheOperation(c.Name, providers.Badger, "get", "hit", len(data))
		return data, status.LookupStatusHit, nil
	}
	if err == badger.ErrKeyNotFound {
		return cache.ObserveCacheMiss(cacheKey, c.Name, providers.Badger)
	}
	return nil, status.LookupStatusError, err
}

// Remove removes objects from the cache
func (c *CacheClient) Remove(cacheKeys ...string) error {
	err := c.dbh.Update(func(txn *badger.Txn) error {
		for _, cacheKey := range cacheKeys {
			if err := txn.Delete([]byte(cacheKey)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.ObserveCacheOperation(c.Name, providers.Badger, "remove", "none", 0)
	return nil
}

// Close closes the Badger database handle
func (c *CacheClient) Close() error {
	if c.dbh == nil {
		return nil
	}
	return c.dbh.Close()
}
