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

// Package options defines the caching behavior configuration
package options

import (
	"fmt"

	"github.com/messmate/edgecache/pkg/cache/providers"
)

// Lookup is a map of Options keyed by cache name
type Lookup map[string]*Options

// Options is a collection of defining the Caching Behavior
type Options struct {
	// Name is the Name of the cache, taken from the Key in the Caches map[string]*Options
	Name string `yaml:"-"`
	// Provider represents the type of cache that we wish to use: "memory",
	// "filesystem", "bbolt", "badger" or "redis"
	Provider string `yaml:"provider,omitempty"`
	// Compression indicates whether the cache should snappy-compress stored documents
	Compression bool `yaml:"compression"`
	// Redis provides options for Redis caching
	Redis *RedisOptions `yaml:"redis,omitempty"`
	// Filesystem provides options for Filesystem caching
	Filesystem *FilesystemOptions `yaml:"filesystem,omitempty"`
	// BBolt provides options for BBolt caching
	BBolt *BBoltOptions `yaml:"bbolt,omitempty"`
	// Badger provides options for BadgerDB caching
	Badger *BadgerOptions `yaml:"badger,omitempty"`
}

// RedisOptions is a collection of Configurations for Connecting to Redis
type RedisOptions struct {
	// Protocol represents the connection method (e.g., "tcp", "unix", etc.)
	Protocol string `yaml:"protocol,omitempty"`
	// Endpoint represents FQDN:port or IPAddress:Port of the Redis Endpoint
	Endpoint string `yaml:"endpoint,omitempty"`
	// Password can be set when using password protected redis instances
	Password string `yaml:"password,omitempty"`
	// DB is the Database to be selected after connecting to the server
	DB int `yaml:"db,omitempty"`
}

// FilesystemOptions is a collection of Configurations for storing cached data on the Filesystem
type FilesystemOptions struct {
	// CachePath represents the path on disk where the cache will live
	CachePath string `yaml:"cache_path,omitempty"`
}

// BBoltOptions is a collection of Configurations for storing cached data in BBolt
type BBoltOptions struct {
	// Filename represents the filename (including path) of the BBolt database
	Filename string `yaml:"filename,omitempty"`
	// Bucket represents the name of the bucket within BBolt under which the cache's objects will be stored
	Bucket string `yaml:"bucket,omitempty"`
}

// BadgerOptions is a collection of Configurations for storing cached data in BadgerDB
type BadgerOptions struct {
	// Directory represents the path on disk where the Badger database should store data
	Directory string `yaml:"directory,omitempty"`
	// ValueDirectory represents the path on disk where the Badger database will store its value log
	ValueDirectory string `yaml:"value_directory,omitempty"`
}

// New will return a pointer to an Options with the default configuration settings
func New() *Options {
	return &Options{
		Provider:    DefaultCacheProvider,
		Compression: DefaultCacheCompression,
		Redis:       &RedisOptions{Protocol: DefaultRedisProtocol, Endpoint: DefaultRedisEndpoint},
		Filesystem:  &FilesystemOptions{CachePath: DefaultCachePath},
		BBolt:       &BBoltOptions{Filename: DefaultBBoltFile, Bucket: DefaultBBoltBucket},
		Badger:      &BadgerOptions{Directory: DefaultCachePath, ValueDirectory: DefaultCachePath},
	}
}

// Clone returns an exact copy of the subject Options
func (o *Options) Clone() *Options {
	c := New()
	c.Name = o.Name
	c.Provider = o.Provider
	c.Compression = o.Compression
	if o.Redis != nil {
		*c.Redis = *o.Redis
	}
	if o.Filesystem != nil {
		*c.Filesystem = *o.Filesystem
	}
	if o.BBolt != nil {
		*c.BBolt = *o.BBolt
	}
	if o.Badger != nil {
		*c.Badger = *o.Badger
	}
	return c
}

// Validate validates the Options
func (o *Options) Validate() error {
	if !providers.IsValidName(o.Provider) {
		return fmt.Errorf("invalid cache provider name: %s", o.Provider)
	}
	return nil
}
