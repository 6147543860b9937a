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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/proxy/headers"
	po "github.com/messmate/edgecache/pkg/proxy/options"
)

type replayCapture struct {
	mtx     sync.Mutex
	bodies  []string
	headers []http.Header
}

func newTestDrainer(t *testing.T, originURL, tokenFile string) (*Drainer, *Queue) {
	o := NewOptions()
	o.Filename = filepath.Join(t.TempDir(), "queue.db")
	o.TokenFile = tokenFile
	q, err := New(o, logging.ConsoleLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { q.Close() })

	uo := po.New()
	uo.OriginURL = originURL
	if err := uo.Validate(); err != nil {
		t.Fatal(err)
	}
	d := NewDrainer(q, &http.Client{Timeout: uo.Timeout()}, uo,
		logging.ConsoleLogger("error"))
	return d, q
}

func TestDrainDeliversInOrder(t *testing.T) {
	rc := &replayCapture{}
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			rc.mtx.Lock()
			rc.bodies = append(rc.bodies, string(body))
			rc.headers = append(rc.headers, r.Header.Clone())
			rc.mtx.Unlock()
			w.WriteHeader(http.StatusCreated)
		}))
	defer ts.Close()

	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("tok-1"), 0o600); err != nil {
		t.Fatal(err)
	}
	d, q := newTestDrainer(t, ts.URL, tokenFile)

	q.SaveOfflineData("meal", json.RawMessage(`{"n":1}`))
	q.SaveOfflineData("meal", json.RawMessage(`{"n":2}`))

	d.Drain(context.Background(), "meal")

	if q.Count("meal") != 0 {
		t.Errorf("expected drained queue got %d records", q.Count("meal"))
	}
	if len(rc.bodies) != 2 || rc.bodies[0] != `{"n":1}` || rc.bodies[1] != `{"n":2}` {
		t.Errorf("unexpected replay order %v", rc.bodies)
	}
	for _, h := range rc.headers {
		if h.Get(headers.NameAuthorization) != "Bearer tok-1" {
			t.Errorf("expected bearer token, got %q", h.Get(headers.NameAuthorization))
		}
		if h.Get(headers.NameContentType) != headers.ValueApplicationJSON {
			t.Errorf("expected json content type, got %q", h.Get(headers.NameContentType))
		}
	}
}

func TestDrainRetainsRejectedRecords(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			calls++
			body, _ := io.ReadAll(r.Body)
			if string(body) == `{"bad":true}` {
				http.Error(w, "rejected", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
	defer ts.Close()
	d, q := newTestDrainer(t, ts.URL, "")

	q.SaveOfflineData("meal", json.RawMessage(`{"bad":true}`))
	q.SaveOfflineData("meal", json.RawMessage(`{"good":true}`))

	d.Drain(context.Background(), "meal")

	// the rejected record stays for the next trigger; the later record was
	// still delivered
	if q.Count("meal") != 1 {
		t.Errorf("expected 1 retained record got %d", q.Count("meal"))
	}
	if calls != 2 {
		t.Errorf("expected 2 replay attempts got %d", calls)
	}

	// a subsequent pass retries the retained record
	d.Drain(context.Background(), "meal")
	if calls != 3 {
		t.Errorf("expected 3 replay attempts got %d", calls)
	}
	if q.Count("meal") != 1 {
		t.Errorf("expected the record to remain retained, got %d", q.Count("meal"))
	}
}

func TestDrainOfflineLeavesQueueIntact(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()
	d, q := newTestDrainer(t, ts.URL, "")

	q.SaveOfflineData("expense", json.RawMessage(`{"amount":12}`))
	d.Drain(context.Background(), "expense")

	if q.Count("expense") != 1 {
		t.Errorf("expected retained record got %d", q.Count("expense"))
	}
}

func TestDrainAll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
	defer ts.Close()
	d, q := newTestDrainer(t, ts.URL, "")

	q.SaveOfflineData("meal", json.RawMessage(`{"n":1}`))
	q.SaveOfflineData("expense", json.RawMessage(`{"amount":12}`))

	d.DrainAll(context.Background())

	if q.Count("meal") != 0 || q.Count("expense") != 0 {
		t.Errorf("expected both types drained, got meal=%d expense=%d",
			q.Count("meal"), q.Count("expense"))
	}
}

func TestDrainUnknownType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream must not be called for an unknown type")
		}))
	defer ts.Close()
	d, _ := newTestDrainer(t, ts.URL, "")
	d.Drain(context.Background(), "unknown")
}

func TestDrainSurvivesRestart(t *testing.T) {
	// records queued by one process lifetime drain in the next
	filename := filepath.Join(t.TempDir(), "queue.db")

	o := NewOptions()
	o.Filename = filename
	q, err := New(o, logging.ConsoleLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	q.SaveOfflineData("meal", json.RawMessage(`{"n":1}`))
	if err = q.Close(); err != nil {
		t.Fatal(err)
	}

	var calls int
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
		}))
	defer ts.Close()

	o2 := NewOptions()
	o2.Filename = filename
	q2, err := New(o2, logging.ConsoleLogger("error"))
	if err != nil {
		t.Fatal(err)
	}
	defer q2.Close()

	uo := po.New()
	uo.OriginURL = ts.URL
	if err := uo.Validate(); err != nil {
		t.Fatal(err)
	}
	d := NewDrainer(q2, &http.Client{}, uo, logging.ConsoleLogger("error"))
	d.Drain(context.Background(), "meal")

	if calls != 1 {
		t.Errorf("expected 1 replay got %d", calls)
	}
	if q2.Count("meal") != 0 {
		t.Errorf("expected drained queue got %d", q2.Count("meal"))
	}
}
