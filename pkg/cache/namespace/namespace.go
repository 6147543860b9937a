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

// Package namespace provides named, versioned views over a cache.Client.
// A persisted manifest tracks every namespace known to the store and the
// keys written under it, so that activation can sweep the namespaces of
// prior versions out of the underlying cache.
package namespace

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/messmate/edgecache/pkg/cache"
	"github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/observability/logging"
)

// ManifestKey is the key under which the manifest writes itself to its associated cache
const ManifestKey = "edgecache.namespace.manifest"

// keySeparator joins a namespace name and an entry key into a cache key
const keySeparator = "|"

// Name returns the versioned namespace name for the provided kind and version
func Name(kind, version string) string {
	return kind + "." + version
}

type manifest struct {
	// Namespaces maps each known namespace name to the set of keys written under it
	Namespaces map[string]map[string]bool `msgpack:"namespaces"`
}

// Store wraps a cache.Client with namespace bookkeeping
type Store struct {
	c      cache.Client
	logger *logging.EdgeLogger
	mtx    sync.Mutex
	m      *manifest
}

// NewStore returns a Store bound to the provided cache client, loading any
// manifest persisted by a prior instance
func NewStore(c cache.Client, logger *logging.EdgeLogger) (*Store, error) {
	s := &Store{c: c, logger: logger, m: &manifest{Namespaces: make(map[string]map[string]bool)}}
	data, _, err := c.Retrieve(ManifestKey)
	if err != nil {
		if err != cache.ErrKNF {
			return nil, err
		}
		return s, nil
	}
	m := &manifest{}
	if err = msgpack.Unmarshal(data, m); err != nil {
		// a corrupt manifest is recoverable: orphaned entries are swept on the
		// next version change
		logger.Warn("namespace manifest unreadable, starting empty",
			logging.Pairs{"detail": err.Error()})
		return s, nil
	}
	if m.Namespaces == nil {
		m.Namespaces = make(map[string]map[string]bool)
	}
	s.m = m
	return s, nil
}

// Namespace returns a named view over the store, registering the name in the manifest
func (s *Store) Namespace(name string) (*Namespace, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.m.Namespaces[name]; !ok {
		s.m.Namespaces[name] = make(map[string]bool)
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
	}
	return &Namespace{name: name, s: s}, nil
}

// Names returns the sorted names of all namespaces known to the store
func (s *Store) Names() []string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	names := make([]string, 0, len(s.m.Namespaces))
	for name := range s.m.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Activate removes every namespace whose name is not in the provided current
// set, along with all of its entries. Activation is idempotent; activating
// with the same current set repeatedly is a no-op after the first pass.
func (s *Store) Activate(current ...string) error {
	keep := make(map[string]bool, len(current))
	for _, name := range current {
		keep[name] = true
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	var swept []string
	for name, keys := range s.m.Namespaces {
		if keep[name] {
			continue
		}
		cacheKeys := make([]string, 0, len(keys))
		for k := range keys {
			cacheKeys = append(cacheKeys, prefixed(name, k))
		}
		if len(cacheKeys) > 0 {
			if err := s.c.Remove(cacheKeys...); err != nil {
				return err
			}
		}
		delete(s.m.Namespaces, name)
		swept = append(swept, name)
	}

	if len(swept) == 0 {
		return nil
	}
	s.logger.Info("stale cache namespaces swept",
		logging.Pairs{"namespaces": strings.Join(swept, ","), "current": strings.Join(current, ",")})
	return s.flushLocked()
}

// flushLocked persists the manifest; the caller must hold s.mtx
func (s *Store) flushLocked() error {
	data, err := msgpack.Marshal(s.m)
	if err != nil {
		return err
	}
	return s.c.Store(ManifestKey, data, 0)
}

// Namespace is a named view over a Store; entry keys are namespace-prefixed
// in the underlying cache
type Namespace struct {
	name string
	s    *Store
}

// Name returns the namespace name
func (ns *Namespace) Name() string {
	return ns.name
}

// Configuration returns the Configuration of the underlying cache client
func (ns *Namespace) Configuration() *options.Options {
	return ns.s.c.Configuration()
}

// Store places an object in the namespace using the specified key
func (ns *Namespace) Store(key string, data []byte, ttl time.Duration) error {
	ns.s.mtx.Lock()
	keys, ok := ns.s.m.Namespaces[ns.name]
	if !ok {
		keys = make(map[string]bool)
		ns.s.m.Namespaces[ns.name] = keys
	}
	var flushErr error
	if !keys[key] {
		keys[key] = true
		flushErr = ns.s.flushLocked()
	}
	ns.s.mtx.Unlock()
	if flushErr != nil {
		return flushErr
	}
	return ns.s.c.Store(prefixed(ns.name, key), data, ttl)
}

// Retrieve looks for an object in the namespace and returns it (or an error if not found)
func (ns *Namespace) Retrieve(key string) ([]byte, status.LookupStatus, error) {
	return ns.s.c.Retrieve(prefixed(ns.name, key))
}

// Remove removes objects from the namespace
func (ns *Namespace) Remove(keys ...string) error {
	cacheKeys := make([]string, len(keys))
	ns.s.mtx.Lock()
	for i, k := range keys {
		cacheKeys[i] = prefixed(ns.name, k)
		delete(ns.s.m.Namespaces[ns.name], k)
	}
	flushErr := ns.s.flushLocked()
	ns.s.mtx.Unlock()
	if flushErr != nil {
		return flushErr
	}
	return ns.s.c.Remove(cacheKeys...)
}

func prefixed(name, key string) string {
	return name + keySeparator + key
}
