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

package memory

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
	mc := New(t.Name(), cfg)
	if err := mc.Connect(); err != nil {
		t.Fatal(err)
	}
	return mc
}

func TestCache_Connect(t *testing.T) {
	mc := New(t.Name(), co.New())
	if err := mc.Connect(); err != nil {
		t.Error(err)
	}
}

func TestCache_StoreRetrieve(t *testing.T) {
	mc := newCacheClient(t)
	defer mc.Close()

	if err := mc.Store(cacheKey, []byte("data"), time.Minute); err != nil {
		t.Error(err)
	}

	data, ls, err := mc.Retrieve(cacheKey)
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

func TestCache_RetrieveMiss(t *testing.T) {
	mc := newCacheClient(t)
	defer mc.Close()

	_, ls, err := mc.Retrieve("absent")
	if err != cache.ErrKNF {
		t.Errorf("expected %v got %v", cache.ErrKNF, err)
	}
	if ls != status.LookupStatusKeyMiss {
		t.Errorf("expected %s got %s", status.LookupStatusKeyMiss, ls)
	}
}

func TestCache_Remove(t *testing.T) {
	mc := newCacheClient(t)
	defer mc.Close()

	if err := mc.Store(cacheKey, []byte("data"), time.Minute); err != nil {
		t.Error(err)
	}
	if err := mc.Remove(cacheKey); err != nil {
		t.Error(err)
	}
	if _, _, err := mc.Retrieve(cacheKey); err != cache.ErrKNF {
		t.Errorf("expected %v got %v", cache.ErrKNF, err)
	}
}

func TestCache_RemoveVariadic(t *testing.T) {
	mc := newCacheClient(t)
	defer mc.Close()

	keys := []string{"k1", "k2", "k3"}
	for _, k := range keys {
		if err := mc.Store(k, []byte("data"), time.Minute); err != nil {
			t.Error(err)
		}
	}
	if err := mc.Remove(keys...); err != nil {
		t.Error(err)
	}
	for _, k := range keys {
		if _, _, err := mc.Retrieve(k); err != cache.ErrKNF {
			t.Errorf("expected %v got %v for key %s", cache.ErrKNF, err, k)
		}
	}
}

func TestCache_Configuration(t *testing.T) {
	cfg := co.New()
	mc := New(t.Name(), cfg)
	if mc.Configuration() != cfg {
		t.Error("expected configuration identity")
	}
}
