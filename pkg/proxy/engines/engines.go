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

// Package engines provides the caching strategies applied to intercepted requests
package engines

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/messmate/edgecache/pkg/cache/namespace"
	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/metrics"
	"github.com/messmate/edgecache/pkg/observability/tracing"
	"github.com/messmate/edgecache/pkg/proxy/headers"
	po "github.com/messmate/edgecache/pkg/proxy/options"
)

// Strategy names as conveyed in instrumentation
const (
	StrategyNetworkFirst = "network-first"
	StrategyCacheFirst   = "cache-first"
	StrategyProxyOnly    = "proxy-only"
)

// OfflineAPIBody is the synthesized JSON body returned for an API read that
// cannot be served from network or cache
const OfflineAPIBody = `{"error":"Offline - cached data may be outdated","offline":true}`

// OfflineTextBody is the synthesized plain-text body returned for a static
// asset that cannot be served from network or cache
const OfflineTextBody = "Offline"

// Resources is the set of collaborators an engine needs to serve a request
type Resources struct {
	UpstreamClient  *http.Client
	UpstreamOptions *po.Options
	StaticCache     *namespace.Namespace
	APICache        *namespace.Namespace
	Logger          *logging.EdgeLogger
	Tracer          *tracing.Tracer
	// Observe, when set, is fed the transport outcome of every upstream
	// attempt so the connectivity monitor learns from live traffic
	Observe func(ok bool)
}

func (rsc *Resources) observe(ok bool) {
	if rsc.Observe != nil {
		rsc.Observe(ok)
	}
}

// UpstreamRequest rebases the inbound request onto the configured origin,
// preserving path, query, headers and body
func (rsc *Resources) UpstreamRequest(ctx context.Context, r *http.Request) (*http.Request, error) {
	o := rsc.UpstreamOptions
	u := *r.URL
	u.Scheme = o.Scheme
	u.Host = o.Host
	u.Path = o.PathPrefix + r.URL.Path
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), r.Body)
	if err != nil {
		return nil, err
	}
	req.Header = headers.Clone(r.Header)
	headers.StripHopHeaders(req.Header)
	req.Header.Set(headers.NameVia, "edgecache")
	return req, nil
}

// relayResponse writes a live upstream response and its pre-read body downstream
func relayResponse(w http.ResponseWriter, resp *http.Response, body []byte, cacheStatus status.LookupStatus) {
	h := w.Header()
	headers.Merge(h, resp.Header)
	headers.StripHopHeaders(h)
	h.Set(headers.NameContentLength, strconv.Itoa(len(body)))
	h.Set(headers.NameCacheStatus, cacheStatus.String())
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

// writeSynthetic writes a locally synthesized response
func writeSynthetic(w http.ResponseWriter, code int, contentType, body string, cacheStatus status.LookupStatus) {
	h := w.Header()
	h.Set(headers.NameContentType, contentType)
	h.Set(headers.NameCacheStatus, cacheStatus.String())
	w.WriteHeader(code)
	io.WriteString(w, body)
}

// SeedError indicates the upstream returned a non-200 status for a
// precache manifest entry
type SeedError struct {
	StatusCode int
}

func (e *SeedError) Error() string {
	return "unexpected precache seed status " + strconv.Itoa(e.StatusCode)
}

// recordResults records the transaction metrics for the provided request
func recordResults(strategy string, cacheStatus status.LookupStatus, httpStatus int, start time.Time) {
	sc := strconv.Itoa(httpStatus)
	metrics.ProxyRequestStatus.WithLabelValues(strategy, cacheStatus.String(), sc).Inc()
	metrics.ProxyRequestDuration.WithLabelValues(strategy, cacheStatus.String(),
		sc).Observe(time.Since(start).Seconds())
}
