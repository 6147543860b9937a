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

// Package registry handles the registration of cache implementations
// to be used by the interceptor
package registry

import (
	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/badger"
	"github.com/messmate/edgecache/pkg/cache/bbolt"
	"github.com/messmate/edgecache/pkg/cache/filesystem"
	"github.com/messmate/edgecache/pkg/cache/memory"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/providers"
	"github.com/messmate/edgecache/pkg/cache/redis"
)

// LoadCachesFromConfig iterates the provided cache Options and Connects/Maps each Cache
func LoadCachesFromConfig(caches options.Lookup) (cache.Lookup, error) {
	lookup := make(cache.Lookup)
	for k, v := range caches {
		c, err := NewCache(k, v)
		if err != nil {
			return nil, err
		}
		lookup[k] = c
	}
	return lookup, nil
}

// CloseCaches iterates the set of caches and closes each
func CloseCaches(caches cache.Lookup) error {
	for _, c := range caches {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}

// NewCache returns a connected Cache client based on the provided cache Options
func NewCache(cacheName string, cfg *options.Options) (cache.Client, error) {
	var c cache.Client
	switch cfg.Provider {
	case providers.Filesystem:
		c = filesystem.NewCache(cacheName, cfg)
	case providers.Redis:
		c = redis.New(cacheName, cfg)
	case providers.BBolt:
		c = bbolt.New(cacheName, "", "", cfg)
	case providers.Badger:
		c = badger.New(cacheName, cfg)
	default:
		// Default to MemoryCache
		c = memory.New(cacheName, cfg)
	}
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}
