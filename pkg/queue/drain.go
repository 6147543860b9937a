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
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/metrics"
	"github.com/messmate/edgecache/pkg/proxy/headers"
	po "github.com/messmate/edgecache/pkg/proxy/options"
)

// Drainer replays queued write records against the live upstream API. Drains
// run unattended; failures are logged, never returned to a caller.
type Drainer struct {
	queue    *Queue
	client   *http.Client
	upstream *po.Options
	logger   *logging.EdgeLogger
	// busy guards against overlapping drain passes per operation type; a
	// record caught by two near-simultaneous triggers is still delivered
	// at-least-once, not exactly-once
	busy map[string]*int32
}

// NewDrainer returns a Drainer for the provided queue and upstream
func NewDrainer(q *Queue, client *http.Client, upstream *po.Options,
	logger *logging.EdgeLogger) *Drainer {
	busy := make(map[string]*int32, len(q.opts.Operations))
	for t := range q.opts.Operations {
		busy[t] = new(int32)
	}
	return &Drainer{queue: q, client: client, upstream: upstream, logger: logger, busy: busy}
}

// DrainAll runs one drain pass for every registered operation type
func (d *Drainer) DrainAll(ctx context.Context) {
	for _, t := range d.queue.Types() {
		d.Drain(ctx, t)
	}
}

// Drain replays all records of the provided operation type in creation order.
// A record is deleted only after the upstream acknowledges its replay; a
// failing record stays queued for the next trigger and does not block
// delivery of subsequent records. At most one pass per type runs at a time.
func (d *Drainer) Drain(ctx context.Context, opType string) {
	flag, ok := d.busy[opType]
	if !ok {
		d.logger.Warn("drain requested for unknown operation type",
			logging.Pairs{"type": opType})
		return
	}
	if !atomic.CompareAndSwapInt32(flag, 0, 1) {
		d.logger.Debug("drain already in progress", logging.Pairs{"type": opType})
		return
	}
	defer atomic.StoreInt32(flag, 0)

	entries, err := d.queue.store.List(opType)
	if err != nil {
		d.logger.Error("queue read failed",
			logging.Pairs{"type": opType, "detail": err.Error()})
		return
	}
	if len(entries) == 0 {
		return
	}

	// the credential is read at drain time, not enqueue time
	token := d.queue.ReadToken()
	apiPath := d.queue.opts.Operations[opType]

	var delivered, failed int
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if err := d.replay(ctx, apiPath, token, e.Record); err != nil {
			// leave the record in place for the next drain trigger
			metrics.QueueOperations.WithLabelValues(opType, "replay", "error").Inc()
			d.logger.Warn("queued write replay failed",
				logging.Pairs{"id": e.Record.ID, "type": opType, "detail": err.Error()})
			failed++
			continue
		}
		if err := d.queue.store.Delete(opType, e.Key); err != nil {
			d.logger.Error("queued write delete failed",
				logging.Pairs{"id": e.Record.ID, "type": opType, "detail": err.Error()})
			continue
		}
		metrics.QueueOperations.WithLabelValues(opType, "replay", "ok").Inc()
		metrics.QueueRecords.WithLabelValues(opType).Dec()
		delivered++
	}
	d.logger.Info("drain pass complete",
		logging.Pairs{"type": opType, "delivered": delivered, "failed": failed})
}

// replay issues the deferred write carrying the stored payload and the
// freshly-read credential
func (d *Drainer) replay(ctx context.Context, apiPath, token string, rec *Record) error {
	u := d.upstream.Scheme + "://" + d.upstream.Host + d.upstream.PathPrefix + apiPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(rec.Data))
	if err != nil {
		return err
	}
	req.Header.Set(headers.NameContentType, headers.ValueApplicationJSON)
	if token != "" {
		req.Header.Set(headers.NameAuthorization, "Bearer "+token)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &ReplayError{StatusCode: resp.StatusCode}
	}
	return nil
}

// ReplayError indicates the upstream rejected a replayed write
type ReplayError struct {
	StatusCode int
}

func (e *ReplayError) Error() string {
	return "upstream rejected replay with status " + http.StatusText(e.StatusCode)
}
