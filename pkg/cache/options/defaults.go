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

package options

const (
	// DefaultCacheProvider is the default cache provider for any defined cache
	DefaultCacheProvider = "memory"
	// DefaultCacheCompression indicates whether stored documents are snappy-compressed by default
	DefaultCacheCompression = true
	// DefaultCachePath is the default path for on-disk cache providers
	DefaultCachePath = "/tmp/edgecache"
	// DefaultRedisProtocol is the default protocol for connecting to redis
	DefaultRedisProtocol = "tcp"
	// DefaultRedisEndpoint is the default endpoint for connecting to redis
	DefaultRedisEndpoint = "redis:6379"
	// DefaultBBoltFile is the default bbolt database filename
	DefaultBBoltFile = "edgecache.db"
	// DefaultBBoltBucket is the default bbolt bucket name
	DefaultBBoltBucket = "edgecache"
)
