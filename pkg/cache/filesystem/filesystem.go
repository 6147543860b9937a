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

// Package filesystem is the filesystem implementation of the Cache
package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/providers"
	"github.com/messmate/edgecache/pkg/cache/status"
)

// CacheClient implements the cache.Client interface
var _ cache.Client = &CacheClient{}

// CacheClient describes a Filesystem CacheClient
type CacheClient struct {
	Name   string
	Config *options.Options
}

// NewCache returns a new filesystem cache as a Cache Interface type
func NewCache(name string, cfg *options.Options) *CacheClient {
	if cfg == nil {
		cfg = options.New()
	}
	return &CacheClient{Name: name, Config: cfg}
}

// Configuration returns the Configuration for the CacheClient
func (c *CacheClient) Configuration() *options.Options {
	return c.Config
}

// Connect ensures the configured cache directory exists
func (c *CacheClient) Connect() error {
	return makeDirectory(c.Config.Filesystem.CachePath)
}

// Store places an object in the cache using the specified key; the filesystem
// provider does not expire objects, eviction happens by namespace versioning
func (c *CacheClient) Store(cacheKey string, data []byte, _ time.Duration) error {
	if cacheKey == "" {
		return errors.New("cacheKey required")
	}
	cache.ObserveCacheOperation(c.Name, providers.Filesystem, "set", "none", len(data))
	dataFile := c.getFileName(cacheKey)
	return os.WriteFile(dataFile, data, os.FileMode(0o664))
}

// Retrieve looks for an object in cache and returns it (or an error if not found)
func (c *CacheClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	dataFile := c.getFileName(cacheKey)
	data, err := os.ReadFile(dataFile)
	if err != nil {
		return cache.ObserveCacheMiss(cacheKey, c.Name, providers.Filesystem)
	}
	cache.ObserveCacheOperation(c.Name, providers.Filesystem, "get", "hit", len(data))
	return data, status.LookupStatusHit, nil
}

// Remove removes objects from the cache
func (c *CacheClient) Remove(cacheKeys ...string) error {
	for _, cacheKey := range cacheKeys {
		if err := os.Remove(c.getFileName(cacheKey)); err != nil && !os.IsNotExist(err) {
			return err
		}
		cache.ObserveCacheOperation(c.Name, providers.Filesystem, "remove", "none", 0)
	}
	return nil
}

// Close is not used for CacheClient, and is here to fully prototype the cache.Client interface
func (c *CacheClient) Close() error {
	return nil
}

func (c *CacheClient) getFileName(cacheKey string) string {
	return filepath.Join(
		c.Config.Filesystem.CachePath,
		strings.NewReplacer("/", "~1", "\\", "~2", "..", "~3", ".", "~4").Replace(cacheKey),
	) + ".data"
}

// makeDirectory creates a directory on the filesystem and returns the error in the event of a failure
func makeDirectory(path string) error {
	err := os.MkdirAll(path, 0o755)
	if err != nil {
		return fmt.Errorf("[%s] directory not writeable by the application: %w", path, err)
	}
	return nil
}
