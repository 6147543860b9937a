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

// Package memory is the memory implementation of the Cache
// and uses a sync.Map to manage cache objects
package memory

import (
	"sync"
	"time"

	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/providers"
	"github.com/messmate/edgecache/pkg/cache/status"
)

// CacheClient implements the cache.Client interface
var _ cache.Client = &CacheClient{}

// CacheClient defines a Memory Cache client that conforms to the cache.Client interface
type CacheClient struct {
	Name   string
	Config *options.Options
	client sync.Map
}

// New returns a new memory cache as a Cache Interface type
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

// Connect initializes the CacheClient
func (c *CacheClient) Connect() error {
	return nil
}

// Store places an object in the cache using the specified key; the memory
// provider does not expire objects, eviction happens by namespace versioning
func (c *CacheClient) Store(cacheKey string, data []byte, _ time.Duration) error {
	cache.ObserveCacheOperation(c.Name, providers.Memory, "set", "none", len(data))
	c.client.Store(cacheKey, data)
	return nil
}

// Retrieve looks for an object in cache and returns it (or an error if not found)
func (c *CacheClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	record, ok := c.client.Load(cacheKey)
	if !ok {
		return cache.ObserveCacheMiss(cacheKey, c.Name, providers.Memory)
	}
	data := record.([]byte)
	cache.ObserveCacheOperation(c.Name, providers.Memory, "get", "hit", len(data))
	return data, status.LookupStatusHit, nil
}

// Remove removes objects from the cache
func (c *CacheClient) Remove(cacheKeys ...string) error {
	for _, k := range cacheKeys {
		c.client.Delete(k)
	}
	return nil
}

// Close is not used for CacheClient, and is here to fully prototype the cache.Client interface
func (c *CacheClient) Close() error {
	return nil
}
