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

package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/metrics"
)

// Default option values
const (
	DefaultFilename = "edgecache-queue.db"
)

// DefaultOperations maps the default operation types to their upstream API paths
var DefaultOperations = map[string]string{
	"meal":    "/api/meals",
	"expense": "/api/expenses",
}

// Options is a collection of write queue configurations
type Options struct {
	// Filename represents the filename (including path) of the queue database
	Filename string `yaml:"filename,omitempty"`
	// Operations maps each queued operation type to the upstream API path its
	// records are replayed against
	Operations map[string]string `yaml:"operations,omitempty"`
	// TokenFile is the path to the bearer credential presented during replay;
	// it is re-read at drain time so a token refreshed while offline is honored
	TokenFile string `yaml:"token_file,omitempty"`
}

// New returns a new Options with default values
func NewOptions() *Options {
	ops := make(map[string]string, len(DefaultOperations))
	for k, v := range DefaultOperations {
		ops[k] = v
	}
	return &Options{Filename: DefaultFilename, Operations: ops}
}

// Queue is the durable write queue handle shared by the interceptor (enqueue)
// and the drainer (dequeue)
type Queue struct {
	store  *Store
	opts   *Options
	logger *logging.EdgeLogger
	// paths reverse-maps api paths to operation types for write capture
	paths map[string]string
}

// New opens the queue's durable store and returns the Queue handle
func New(o *Options, logger *logging.EdgeLogger) (*Queue, error) {
	if o == nil {
		o = NewOptions()
	}
	opTypes := make([]string, 0, len(o.Operations))
	paths := make(map[string]string, len(o.Operations))
	for t, p := range o.Operations {
		opTypes = append(opTypes, t)
		paths[p] = t
	}
	sort.Strings(opTypes)

	store, err := OpenStore(o.Filename, opTypes)
	if err != nil {
		return nil, err
	}
	q := &Queue{store: store, opts: o, logger: logger, paths: paths}

	// restore the queue depth gauges from any records that survived a restart
	for _, t := range opTypes {
		n, err := store.Count(t)
		if err != nil {
			store.Close()
			return nil, err
		}
		metrics.QueueRecords.WithLabelValues(t).Set(float64(n))
	}
	return q, nil
}

// SaveOfflineData persists a new record for the provided operation type and
// payload; the record is durable before control returns to the caller
func (q *Queue) SaveOfflineData(opType string, payload json.RawMessage) (*Record, error) {
	if _, ok := q.opts.Operations[opType]; !ok {
		return nil, fmt.Errorf("unknown operation type: %s", opType)
	}
	rec := NewRecord(opType, payload)
	if _, err := q.store.Insert(rec); err != nil {
		metrics.QueueOperations.WithLabelValues(opType, "enqueue", "error").Inc()
		return nil, err
	}
	metrics.QueueOperations.WithLabelValues(opType, "enqueue", "ok").Inc()
	metrics.QueueRecords.WithLabelValues(opType).Inc()
	q.logger.Info("offline write queued",
		logging.Pairs{"id": rec.ID, "type": opType, "bytes": len(payload)})
	return rec, nil
}

// WriteType returns the operation type registered for the provided api path,
// if any
func (q *Queue) WriteType(path string) (string, bool) {
	t, ok := q.paths[strings.TrimSuffix(path, "/")]
	return t, ok
}

// Types returns the sorted operation types registered with the queue
func (q *Queue) Types() []string {
	types := make([]string, 0, len(q.opts.Operations))
	for t := range q.opts.Operations {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the number of records pending for the provided operation type
func (q *Queue) Count(opType string) int {
	n, err := q.store.Count(opType)
	if err != nil {
		return 0
	}
	return n
}

// Close closes the queue's durable store
func (q *Queue) Close() error {
	return q.store.Close()
}

// ReadToken returns the current bearer credential, or an empty string when no
// credential is available. The credential is read at drain time, not enqueue
// time, since a stored credential may have expired while offline.
func (q *Queue) ReadToken() string {
	if q.opts.TokenFile == "" {
		return ""
	}
	data, err := os.ReadFile(q.opts.TokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
