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

// Package bbolt is the bbolt implementation of the Cache
package bbolt

import (
	"fmt"
	"time"

	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/providers"
	"github.com/messmate/edgecache/pkg/cache/status"

	"go.etcd.io/bbolt"
)

// CacheClient implements the cache.Client interface
var _ cache.Client = &CacheClient{}

// CacheClient describes a BBolt CacheClient
type CacheClient struct {
	Name   string
	Config *options.Options
	dbh    *bbolt.DB
}

// New returns a new bbolt cache as a Cache Interface type
func New(cacheName, fileName, bucketName string, opts *options.Options) *CacheClient {
	if opts == nil {
		opts = options.New()
	}
	if bucketName != "" {
		opts.BBolt.Bucket = bucketName
	}
	if fileName != "" {
		opts.BBolt.Filename = fileName
	}
	return &CacheClient{Name: cacheName, Config: opts}
}

// Configuration returns the Configuration for the CacheClient
func (c *CacheClient) Configuration() *options.Options {
	return c.Config
}

// Connect opens the configured BBolt database and creates the cache bucket if absent
func (c *CacheClient) Connect() error {
	var err error
	c.dbh, err = bbolt.Open(c.Config.BBolt.Filename, 0o644, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return err
	}
	return c.dbh.Update(func(tx *bbolt.Tx) error {
		if _, err2 := tx.CreateBucketIfNotExists([]byte(c.Config.BBolt.Bucket)); err2 != nil {
			return fmt.Errorf("create bucket: %w", err2)
		}
		return nil
	})
}

// Store places an object in the cache using the specified key; the bbolt
// provider does not expire objects, eviction happens by namespace versioning
func (c *CacheClient) Store(cacheKey string, data []byte, _ time.Duration) error {
	cache.ObserveCacheOperation(c.Name, providers.BBolt, "set", "none", len(data))
	return c.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.Config.BBolt.Bucket))
		return b.Put([]byte(cacheKey), data)
	})
}

// Retrieve looks for an object in cache and returns it (or an error if not found)
func (c *CacheClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	var data []byte
	err := c.dbh.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.Config.BBolt.Bucket))
		v := b.Get([]byte(cacheKey))
		if v == nil {
			return cache.ErrKNF
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		if err == cache.ErrKNF {
			return cache.ObserveCacheMiss(cacheKey, c.Name, providers.BBolt)
		}
		return nil, status.LookupStatusError, err
	}
	cache.ObserveCacheOperation(c.Name, providers.BBolt, "get", "hit", len(data))
	return data, status.LookupStatusHit, nil
}

// Remove removes objects from the cache
func (c *CacheClient) Remove(cacheKeys ...string) error {
	err := c.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(c.Config.BBolt.Bucket))
		for _, cacheKey := range cacheKeys {
			if err := b.Delete([]byte(cacheKey)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.ObserveCacheOperation(c.Name, providers.BBolt, "remove", "none", 0)
	return nil
}

// Close closes the BBolt database handle
func (c *CacheClient) Close() error {
	if c.dbh == nil {
		return nil
	}
	return c.dbh.Close()
}
