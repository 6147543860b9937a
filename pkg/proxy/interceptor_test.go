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

package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/messmate/edgecache/pkg/cache/memory"
	"github.com/messmate/edgecache/pkg/cache/namespace"
	co "github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/monitor"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/proxy/headers"
	po "github.com/messmate/edgecache/pkg/proxy/options"
	"github.com/messmate/edgecache/pkg/queue"
)

type testHarness struct {
	interceptor *Interceptor
	nsStore     *namespace.Store
	queue       *queue.Queue
	monitor     *monitor.Monitor
	opts        *po.Options
}

func newTestHarness(t *testing.T, originURL string) *testHarness {
	logger := logging.ConsoleLogger("error")

	o := po.New()
	o.OriginURL = originURL
	o.PrecacheURLs = []string{"/", "/app.js"}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}

	mc := memory.New(t.Name(), co.New())
	if err := mc.Connect(); err != nil {
		t.Fatal(err)
	}
	nsStore, err := namespace.NewStore(mc, logger)
	if err != nil {
		t.Fatal(err)
	}

	qo := queue.NewOptions()
	qo.Filename = filepath.Join(t.TempDir(), "queue.db")
	q, err := queue.New(qo, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { q.Close() })

	mo := monitor.NewOptions()
	mo.FailureThreshold = 1
	mo.RecoveryThreshold = 1
	mon := monitor.New(mo, o, nil, logger)

	client := &http.Client{Timeout: o.Timeout()}
	i, err := New(o, nsStore, client, q, mon, logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testHarness{interceptor: i, nsStore: nsStore, queue: q, monitor: mon, opts: o}
}

func TestServeHTTPClassification(t *testing.T) {
	var lastPath string
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.Path
			w.Write([]byte("ok"))
		}))
	defer ts.Close()
	h := newTestHarness(t, ts.URL)

	// api reads take the network-first path
	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/meals", nil))
	if cs := w.Header().Get(headers.NameCacheStatus); cs != status.LookupStatusProxyOnly.String() {
		t.Errorf("expected cache status %s got %s", status.LookupStatusProxyOnly, cs)
	}
	if lastPath != "/api/meals" {
		t.Errorf("unexpected upstream path %s", lastPath)
	}

	// static reads take the cache-first path
	w = httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if cs := w.Header().Get(headers.NameCacheStatus); cs != status.LookupStatusKeyMiss.String() {
		t.Errorf("expected cache status %s got %s", status.LookupStatusKeyMiss, cs)
	}

	// unregistered writes pass straight through
	w = httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/meals/9", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected %d got %d", http.StatusOK, w.Code)
	}
	if h.queue.Count("meal") != 0 {
		t.Errorf("expected empty queue got %d", h.queue.Count("meal"))
	}
}

func TestHeadDoesNotClobberCachedGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":1,"name":"pasta"}]`))
		}))
	h := newTestHarness(t, ts.URL)

	// populate the api namespace with the GET response
	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/meals", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected %d got %d", http.StatusOK, w.Code)
	}

	// a HEAD for the same URL must pass through without touching the cache;
	// cache keys carry no method, so caching it would overwrite the GET
	// entry with an empty-body snapshot
	w = httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/meals", nil))
	if cs := w.Header().Get(headers.NameCacheStatus); cs != status.LookupStatusProxyOnly.String() {
		t.Errorf("expected cache status %s got %s", status.LookupStatusProxyOnly, cs)
	}

	// the cached GET body survives the HEAD and still serves offline
	ts.Close()
	w = httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/meals", nil))
	if cs := w.Header().Get(headers.NameCacheStatus); cs != status.LookupStatusOfflineHit.String() {
		t.Errorf("expected cache status %s got %s", status.LookupStatusOfflineHit, cs)
	}
	if w.Body.String() != `[{"id":1,"name":"pasta"}]` {
		t.Errorf("unexpected offline body %q", w.Body.String())
	}
}

func TestWriteForwardedWhileOnline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":42}`))
		}))
	defer ts.Close()
	h := newTestHarness(t, ts.URL)

	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/meals",
		strings.NewReader(`{"name":"pasta"}`)))

	if w.Code != http.StatusCreated {
		t.Errorf("expected %d got %d", http.StatusCreated, w.Code)
	}
	if w.Body.String() != `{"id":42}` {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if h.queue.Count("meal") != 0 {
		t.Errorf("expected empty queue got %d", h.queue.Count("meal"))
	}
}

func TestWriteCapturedWhileOffline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()
	h := newTestHarness(t, ts.URL)

	// the monitor has observed the outage
	h.monitor.Observe(false)
	if h.monitor.IsOnline() {
		t.Fatal("expected monitor offline")
	}

	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/meals",
		strings.NewReader(`{"name":"pasta"}`)))

	if w.Code != http.StatusAccepted {
		t.Errorf("expected %d got %d", http.StatusAccepted, w.Code)
	}

	var rec queue.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Type != "meal" {
		t.Errorf("expected type meal got %s", rec.Type)
	}
	if string(rec.Data) != `{"name":"pasta"}` {
		t.Errorf("unexpected echoed payload %s", rec.Data)
	}
	if h.queue.Count("meal") != 1 {
		t.Errorf("expected 1 queued record got %d", h.queue.Count("meal"))
	}
}

func TestWriteCapturedOnTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()
	h := newTestHarness(t, ts.URL)

	// the monitor still believes the upstream is online; the failed forward
	// itself triggers the capture
	if !h.monitor.IsOnline() {
		t.Fatal("expected monitor online")
	}

	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"amount":12}`)))

	if w.Code != http.StatusAccepted {
		t.Errorf("expected %d got %d", http.StatusAccepted, w.Code)
	}
	if h.queue.Count("expense") != 1 {
		t.Errorf("expected 1 queued record got %d", h.queue.Count("expense"))
	}
	if h.monitor.IsOnline() {
		t.Error("expected the failed forward to mark the upstream offline")
	}
}

func TestReadOutcomesFeedMonitor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
	h := newTestHarness(t, ts.URL)

	// a successful read keeps the monitor online
	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/meals", nil))
	if !h.monitor.IsOnline() {
		t.Fatal("expected monitor online after a successful read")
	}

	// a failed read transport marks the upstream offline without waiting
	// for the probe loop
	ts.Close()
	w = httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	if h.monitor.IsOnline() {
		t.Error("expected the failed read to mark the upstream offline")
	}
}

func TestInstallAndActivate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headers.NameContentType, headers.ValueTextHTML)
			w.Write([]byte("<html>" + r.URL.Path + "</html>"))
		}))
	defer ts.Close()
	h := newTestHarness(t, ts.URL)

	h.interceptor.Install(context.Background())

	// precached assets now serve as cache hits with the upstream gone
	ts.Close()
	w := httptest.NewRecorder()
	h.interceptor.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected %d got %d", http.StatusOK, w.Code)
	}
	if cs := w.Header().Get(headers.NameCacheStatus); cs != status.LookupStatusHit.String() {
		t.Errorf("expected cache status %s got %s", status.LookupStatusHit, cs)
	}

	// the offline page was seeded implicitly and serves navigations
	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/uncached-page", nil)
	r.Header.Set(headers.NameAccept, headers.ValueTextHTML)
	h.interceptor.ServeHTTP(w, r)
	if w.Body.String() != "<html>/offline.html</html>" {
		t.Errorf("unexpected offline page body %s", w.Body.String())
	}
}

func TestActivateSweepsPriorVersions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
	defer ts.Close()
	h := newTestHarness(t, ts.URL)

	// simulate leftover namespaces from a prior cache version
	old, err := h.nsStore.Namespace("static.v0")
	if err != nil {
		t.Fatal(err)
	}
	old.Store("stale", []byte("stale"), 0)

	if err := h.interceptor.Activate(); err != nil {
		t.Fatal(err)
	}

	names := h.nsStore.Names()
	for _, n := range names {
		if n == "static.v0" {
			t.Error("expected static.v0 to be swept")
		}
	}
	if len(names) != 2 {
		t.Errorf("expected 2 current namespaces got %v", names)
	}
}

func TestServeHTTPRejectsNonNetworkScheme(t *testing.T) {
	h := newTestHarness(t, "http://upstream.invalid")
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "ftp://example.com/file", nil)
	h.interceptor.ServeHTTP(w, r)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected %d got %d", http.StatusBadGateway, w.Code)
	}
}
