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

// Package queue provides the durable write queue: writes attempted while the
// upstream is unreachable are persisted locally and replayed, in creation
// order, once connectivity returns. Delivery is at-least-once; a record is
// removed only after the upstream acknowledges its replay.
package queue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"
)

// Record represents one deferred write operation
type Record struct {
	// ID is the synthetic record identifier, of the form <type>-<creationTimestampMillis>
	ID string `json:"id"`
	// Type is the operation type (e.g., "meal" or "expense")
	Type string `json:"type"`
	// Data is the opaque payload exactly as the upstream API expects it
	Data json.RawMessage `json:"data"`
	// Timestamp is the record creation time in epoch milliseconds
	Timestamp int64 `json:"timestamp"`
	// Synced is informational only; deletion, not flag mutation, is the
	// authoritative removal signal
	Synced bool `json:"synced"`
}

// seq disambiguates records created within the same millisecond
var seq uint64

// NewRecord returns a Record for the provided operation type and payload
func NewRecord(opType string, payload json.RawMessage) *Record {
	now := time.Now().UnixMilli()
	return &Record{
		ID:        opType + "-" + strconv.FormatInt(now, 10),
		Type:      opType,
		Data:      payload,
		Timestamp: now,
	}
}

// storeKey returns the bucket key for the record; keys sort lexically in
// creation order
func (r *Record) storeKey() string {
	return fmt.Sprintf("%020d.%09d", r.Timestamp, atomic.AddUint64(&seq, 1))
}
