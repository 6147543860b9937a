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
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/messmate/edgecache/pkg/cache/namespace"
	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/monitor"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/tracing"
	"github.com/messmate/edgecache/pkg/proxy/engines"
	"github.com/messmate/edgecache/pkg/proxy/headers"
	"github.com/messmate/edgecache/pkg/proxy/methods"
	po "github.com/messmate/edgecache/pkg/proxy/options"
	"github.com/messmate/edgecache/pkg/queue"
)

// Namespace kinds owned by the interceptor
const (
	NamespaceKindStatic = "static"
	NamespaceKindAPI    = "api"
)

// Interceptor classifies every inbound request and applies the matching
// caching strategy. It exclusively owns the cache namespaces and their
// lifecycle across version upgrades.
type Interceptor struct {
	opts    *po.Options
	nsStore *namespace.Store
	queue   *queue.Queue
	monitor *monitor.Monitor
	logger  *logging.EdgeLogger
	rsc     *engines.Resources
}

// New returns an Interceptor bound to the provided collaborators. The static
// and api namespaces for the configured cache version are registered with the
// namespace store at construction time.
func New(o *po.Options, nsStore *namespace.Store, client *http.Client,
	q *queue.Queue, m *monitor.Monitor, logger *logging.EdgeLogger,
	tracer *tracing.Tracer) (*Interceptor, error) {

	staticNS, err := nsStore.Namespace(namespace.Name(NamespaceKindStatic, o.CacheVersion))
	if err != nil {
		return nil, err
	}
	apiNS, err := nsStore.Namespace(namespace.Name(NamespaceKindAPI, o.CacheVersion))
	if err != nil {
		return nil, err
	}

	i := &Interceptor{
		opts:    o,
		nsStore: nsStore,
		queue:   q,
		monitor: m,
		logger:  logger,
		rsc: &engines.Resources{
			UpstreamClient:  client,
			UpstreamOptions: o,
			StaticCache:     staticNS,
			APICache:        apiNS,
			Logger:          logger,
			Tracer:          tracer,
			Observe:         m.Observe,
		},
	}
	return i, nil
}

// Install pre-populates the static namespace with the configured precache
// manifest of app shell paths. Each fetch is independently fault-tolerant;
// a partial failure never aborts the install.
func (i *Interceptor) Install(ctx context.Context) {
	manifest := i.opts.PrecacheURLs
	if i.opts.OfflinePagePath != "" && !contains(manifest, i.opts.OfflinePagePath) {
		manifest = append(manifest, i.opts.OfflinePagePath)
	}
	var seeded int
	for _, p := range manifest {
		u, err := url.Parse(p)
		if err != nil {
			i.logger.Warn("invalid precache url skipped",
				logging.Pairs{"url": p, "detail": err.Error()})
			continue
		}
		if err = i.seed(ctx, u); err != nil {
			i.logger.Warn("precache seed failed",
				logging.Pairs{"url": p, "detail": err.Error()})
			continue
		}
		seeded++
	}
	i.logger.Info("static namespace seeded",
		logging.Pairs{"namespace": i.rsc.StaticCache.Name(),
			"seeded": seeded, "manifest": len(manifest)})
}

func (i *Interceptor) seed(ctx context.Context, u *url.URL) error {
	target := i.opts.Scheme + "://" + i.opts.Host + i.opts.PathPrefix + u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := i.rsc.UpstreamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &engines.SeedError{StatusCode: resp.StatusCode}
	}
	d := engines.DocumentFromHTTPResponse(resp, body)
	return engines.WriteCache(i.rsc.StaticCache, engines.DeriveCacheKey(u), d, 0)
}

// Activate sweeps every namespace whose name is neither the current static
// nor the current api namespace name. Activation is idempotent.
func (i *Interceptor) Activate() error {
	return i.nsStore.Activate(i.rsc.StaticCache.Name(), i.rsc.APICache.Name())
}

// ServeHTTP classifies the request and applies the matching strategy;
// classification is evaluated in order and the first match wins
func (i *Interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	i.logger.Trace("request received",
		logging.Pairs{"method": r.Method, "path": r.URL.Path})

	// absolute-form requests with a non-network scheme are not intercepted
	if r.URL.Scheme != "" && r.URL.Scheme != "http" && r.URL.Scheme != "https" {
		http.Error(w, "unsupported scheme", http.StatusBadGateway)
		return
	}

	// write paths get offline capture; all other non-GETs pass straight through
	if !methods.IsCacheable(r.Method) {
		if t, ok := i.queue.WriteType(r.URL.Path); ok && r.Method == http.MethodPost {
			i.handleWrite(w, r, t)
			return
		}
		engines.DoProxy(w, r, i.rsc)
		return
	}

	if strings.HasPrefix(r.URL.Path, i.opts.APIPrefix) {
		engines.DoNetworkFirst(w, r, i.rsc)
		return
	}

	engines.DoCacheFirst(w, r, i.rsc)
}

// handleWrite forwards a write to the upstream when it is reachable, and
// captures it into the durable queue when it is not. Both capture paths
// (proactive offline check and transport-failure fallback) converge on the
// identical persisted record shape.
func (i *Interceptor) handleWrite(w http.ResponseWriter, r *http.Request, opType string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable request body", http.StatusBadRequest)
		return
	}

	if i.monitor.IsOnline() {
		req, rerr := i.rsc.UpstreamRequest(r.Context(), r)
		if rerr != nil {
			http.Error(w, "bad upstream request", http.StatusInternalServerError)
			return
		}
		req.Body = io.NopCloser(strings.NewReader(string(body)))
		req.ContentLength = int64(len(body))
		resp, derr := i.rsc.UpstreamClient.Do(req)
		if derr == nil {
			defer resp.Body.Close()
			i.monitor.Observe(true)
			respBody, _ := io.ReadAll(resp.Body)
			h := w.Header()
			headers.Merge(h, resp.Header)
			headers.StripHopHeaders(h)
			h.Set(headers.NameCacheStatus, status.LookupStatusProxyOnly.String())
			w.WriteHeader(resp.StatusCode)
			w.Write(respBody)
			return
		}
		i.monitor.Observe(false)
		i.logger.Debug("write attempt failed, capturing offline",
			logging.Pairs{"path": r.URL.Path, "detail": derr.Error()})
	}

	rec, err := i.queue.SaveOfflineData(opType, body)
	if err != nil {
		// a durable-store failure propagates to the application layer
		http.Error(w, "offline capture failed", http.StatusInternalServerError)
		return
	}

	// optimistic echo: the write appears accepted immediately; it is not
	// persisted upstream until a drain pass succeeds
	w.Header().Set(headers.NameContentType, headers.ValueApplicationJSON)
	w.Header().Set(headers.NameCacheStatus, status.LookupStatusOfflineMiss.String())
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(rec)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
