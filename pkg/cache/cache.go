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

// Package cache defines the cache interfaces and provides general cache functionality
package cache

import (
	"errors"
	"time"

	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/observability/metrics"
)

// ErrKNF represents the error "key not found in cache"
var ErrKNF = errors.New("key not found in cache")

// Client is the interface for the supported caching fabrics
// When making new cache providers, Retrieve() must return an error on cache miss
type Client interface {
	Connect() error
	Store(cacheKey string, data []byte, ttl time.Duration) error
	Retrieve(cacheKey string) ([]byte, status.LookupStatus, error)
	Remove(cacheKeys ...string) error
	Close() error
	Configuration() *options.Options
}

// Lookup is a map of Clients keyed by cache name
type Lookup map[string]Client

// ObserveCacheOperation records a cache operation to the instrumentation layer
func ObserveCacheOperation(cacheName, provider, operation, opStatus string, bytes int) {
	metrics.CacheObjectOperations.WithLabelValues(cacheName, provider, operation, opStatus).Inc()
	if bytes > 0 {
		metrics.CacheByteOperations.WithLabelValues(cacheName, provider, operation,
			opStatus).Add(float64(bytes))
	}
}

// ObserveCacheMiss records a cache miss for the given key and returns the
// lookup status and a key-not-found error
func ObserveCacheMiss(cacheKey, cacheName, provider string) ([]byte, status.LookupStatus, error) {
	ObserveCacheOperation(cacheName, provider, "get", "miss", 0)
	return nil, status.LookupStatusKeyMiss, ErrKNF
}
