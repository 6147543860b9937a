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

package engines

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/messmate/edgecache/pkg/cache/memory"
	co "github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/cache/namespace"
	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/proxy/headers"
)

func newTestNamespace(t *testing.T, compression bool) *namespace.Namespace {
	cfg := co.New()
	cfg.Compression = compression
	mc := memory.New(t.Name(), cfg)
	if err := mc.Connect(); err != nil {
		t.Fatal(err)
	}
	s, err := namespace.NewStore(mc, logging.ConsoleLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	ns, err := s.Namespace("static.v1")
	if err != nil {
		t.Fatal(err)
	}
	return ns
}

func testResponse() *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header: http.Header{
			headers.NameContentType: []string{headers.ValueApplicationJSON},
			headers.NameDate:        []string{"Mon, 01 Jan 2024 00:00:00 GMT"},
			"Connection":            []string{"keep-alive"},
		},
	}
	return resp
}

func TestDocumentFromHTTPResponse(t *testing.T) {
	d := DocumentFromHTTPResponse(testResponse(), []byte(`{"ok":true}`))
	if d.StatusCode != http.StatusOK {
		t.Errorf("expected %d got %d", http.StatusOK, d.StatusCode)
	}
	if d.ContentType != headers.ValueApplicationJSON {
		t.Errorf("expected %s got %s", headers.ValueApplicationJSON, d.ContentType)
	}
	// hop-by-hop and Date headers are not part of the stored snapshot
	if _, ok := d.Headers["Connection"]; ok {
		t.Error("expected Connection header to be stripped")
	}
	if _, ok := d.Headers[headers.NameDate]; ok {
		t.Error("expected Date header to be stripped")
	}
}

func TestDocumentCacheRoundTrip(t *testing.T) {
	for _, compression := range []bool{true, false} {
		ns := newTestNamespace(t, compression)
		d := DocumentFromHTTPResponse(testResponse(), []byte(`{"ok":true}`))
		if err := WriteCache(ns, "key1", d, 0); err != nil {
			t.Fatal(err)
		}
		d2, err := QueryCache(ns, "key1")
		if err != nil {
			t.Fatal(err)
		}
		if d2.StatusCode != d.StatusCode {
			t.Errorf("expected %d got %d", d.StatusCode, d2.StatusCode)
		}
		if !bytes.Equal(d2.Body, d.Body) {
			t.Errorf("body mismatch, compression=%t", compression)
		}
	}
}

func TestDocumentWriteResponse(t *testing.T) {
	d := DocumentFromHTTPResponse(testResponse(), []byte(`{"ok":true}`))
	w := httptest.NewRecorder()
	d.WriteResponse(w, status.LookupStatusHit.String())

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected %d got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Header.Get(headers.NameCacheStatus) != status.LookupStatusHit.String() {
		t.Errorf("expected cache status %s got %s",
			status.LookupStatusHit, resp.Header.Get(headers.NameCacheStatus))
	}
	// a fresh Date is synthesized on every cache read
	if resp.Header.Get(headers.NameDate) == "" {
		t.Error("expected a synthesized Date header")
	}
	if w.Body.String() != `{"ok":true}` {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestQueryCacheMiss(t *testing.T) {
	ns := newTestNamespace(t, true)
	if _, err := QueryCache(ns, "absent"); err == nil {
		t.Error("expected cache miss error")
	}
}
