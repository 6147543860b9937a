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

package filesystem

import (
	"bytes"
	"testing"
	"time"

	"github.com/messmate/edgecache/pkg/cache"
	co "github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/status"
)

const cacheKey = "cacheKey"

func newCacheClient(t *testing.T) *CacheClient {
	cfg := co.New()
	cfg.Filesystem.CachePath = t.TempDir()
	fc := NewCache(t.Name(), cfg)
	if err := fc.Connect(); err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestCache_StoreRetrieve(t *testing.T) {
	fc := newCacheClient(t)
	defer fc.Close()

	if err := fc.Store(cacheKey, []byte("data"), time.Minute); err != nil {
		t.Error(err)
	}

	data, ls, err := fc.Retrieve(cacheKey)
	if err != nil {
		t.Error(err)
	}
	if ls != status.LookupStatusHit {
		t.Errorf("expected %s got %s", status.LookupStatusHit, ls)
	}
	if !bytes.Equal(data, []byte("data")) {
		t.Errorf("wanted \"data\". got \"%s\"", data)
	}
}

func TestCache_StoreSeparatorKey(t *testing.T) {
	fc := newCacheClient(t)
	defer fc.Close()

	// namespace-prefixed keys contain separators that must not escape the
	// cache directory
	key := "static.v1|" + cacheKey + "/nested"
	if err := fc.Store(key, []byte("data"), time.Minute); err != nil {
		t.Error(err)
	}
	if _, _, err := fc.Retrieve(key); err != nil {
		t.Error(err)
	}
}

func TestCache_RetrieveMiss(t *testing.T) {
	fc := newCacheClient(t)
	defer fc.Close()

	_, ls, err := fc.Retrieve("absent")
	if err != cache.ErrKNF {
		t.Errorf("expected %v got %v", cache.ErrKNF, err)
	}
	if ls != status.LookupStatusKeyMiss {
		t.Errorf("expected %s got %s", status.LookupStatusKeyMiss, ls)
	}
}

func TestCache_Remove(t *testing.T) {
	fc := newCacheClient(t)
	defer fc.Close()

	if err := fc.Store(cacheKey, []byte("data"), time.Minute); err != nil {
		t.Error(err)
	}
	if err := fc.Remove(cacheKey); err != nil {
		t.Error(err)
	}
	if _, _, err := fc.Retrieve(cacheKey); err != cache.ErrKNF {
		t.Errorf("expected %v got %v", cache.ErrKNF, err)
	}
}
