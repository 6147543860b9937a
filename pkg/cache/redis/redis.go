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

// Package redis is the redis implementation of the Cache
package redis

import (
	"time"

	"github.com/go-redis/redis"

	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/providers"
	"github.com/messmate/edgecache/pkg/cache/status"
)

// CacheClient implements the cache.Client interface
var _ cache.Client = &CacheClient{}

// CacheClient represents a redis cache client that conforms to the cache.Client interface
type CacheClient struct {
	Name   string
	Config *options.Options
	client *redis.Client
}

// New returns a new redis cache as a Cache Interface type
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

// Connect connects to the configured Redis endpoint
func (c *CacheClient) Connect() error {
	opts := &redis.Options{
		Network: c.Config.Redis.Protocol,
		Addr:    c.Config.Redis.Endpoint,
		DB:      c.Config.Redis.DB,
	}
	if c.Config.Redis.Password != "" {
		opts.Password = c.Config.Redis.Password
	}
	c.client = redis.NewClient(opts)
	return c.client.Ping().Err()
}

// Store places the data into the Redis Cache using the provided Key and TTL
func (c *CacheClient) Store(cacheKey string, data []byte, ttl time.Duration) error {
	cache.ObserveCacheOperation(c.Name, providers.Redis, "set", "none", len(data))
	return c.client.Set(cacheKey, data, ttl).Err()
}

// Retrieve gets data from the Redis Cache using the provided Key
func (c *CacheClient) Retrieve(cacheKey string) ([]byte, status.LookupStatus, error) {
	res, err := c.client.Get(cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return cache.ObserveCacheMiss(cacheKey, c.Name, providers.Redis)
		}
		return nil, status.LookupStatusError, err
	}
	data := []byte(res)
	cache.ObserveCacheOperation(c.Name, providers.Redis, "get", "hit", len(data))
	return data, status.LookupStatusHit, nil
}

// Remove removes objects from the cache
func (c *CacheClient) Remove(cacheKeys ...string) error {
	if err := c.client.Del(cacheKeys...).Err(); err != nil {
		return err
	}
	cache.ObserveCacheOperation(c.Name, providers.Redis, "remove", "none", 0)
	return nil
}

// Close disconnects from the Redis Cache
func (c *CacheClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
