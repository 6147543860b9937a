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
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/tracing"
	"github.com/messmate/edgecache/pkg/proxy/headers"
)

// DoCacheFirst serves a static asset with the cache-first strategy: a cached
// document is returned unmodified with no revalidation; a miss populates the
// static namespace from the network; a transport failure yields the cached
// offline page for navigations, else a synthesized offline response.
func DoCacheFirst(w http.ResponseWriter, r *http.Request, rsc *Resources) {
	start := time.Now()
	ctx, span := tracing.NewChildSpan(r.Context(), rsc.Tracer, "CacheFirst")
	if span != nil {
		defer span.End()
	}

	key := DeriveCacheKey(r.URL)

	if d, err := QueryCache(rsc.StaticCache, key); err == nil {
		d.WriteResponse(w, status.LookupStatusHit.String())
		recordResults(StrategyCacheFirst, status.LookupStatusHit, d.StatusCode, start)
		return
	}

	req, err := rsc.UpstreamRequest(ctx, r)
	if err != nil {
		writeSynthetic(w, http.StatusInternalServerError, headers.ValueTextPlain,
			"bad upstream request", status.LookupStatusProxyError)
		recordResults(StrategyCacheFirst, status.LookupStatusProxyError,
			http.StatusInternalServerError, start)
		return
	}

	resp, err := rsc.UpstreamClient.Do(req)
	if err != nil {
		rsc.observe(false)
		serveOffline(w, r, rsc, start)
		return
	}
	rsc.observe(true)
	defer drainAndClose(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		serveOffline(w, r, rsc, start)
		return
	}

	// only a usable 200 populates the namespace; anything else passes through uncached
	if resp.StatusCode == http.StatusOK {
		d := DocumentFromHTTPResponse(resp, body)
		if err := WriteCache(rsc.StaticCache, key, d, 0); err != nil {
			rsc.Logger.Warn("cache commit failed",
				logging.Pairs{"key": key, "detail": err.Error()})
		}
	}

	relayResponse(w, resp, body, status.LookupStatusKeyMiss)
	recordResults(StrategyCacheFirst, status.LookupStatusKeyMiss, resp.StatusCode, start)
}

// serveOffline completes a static asset request that could not reach the
// upstream: navigations receive the cached offline page when present,
// everything else a synthesized plain-text offline response
func serveOffline(w http.ResponseWriter, r *http.Request, rsc *Resources, start time.Time) {
	if IsNavigation(r) {
		fallbackKey := DeriveCacheKeyFromPath(rsc.UpstreamOptions.OfflinePagePath)
		if d, err := QueryCache(rsc.StaticCache, fallbackKey); err == nil {
			d.WriteResponse(w, status.LookupStatusOfflineHit.String())
			recordResults(StrategyCacheFirst, status.LookupStatusOfflineHit, d.StatusCode, start)
			return
		}
	}
	writeSynthetic(w, http.StatusServiceUnavailable, headers.ValueTextPlain,
		OfflineTextBody, status.LookupStatusOfflineMiss)
	recordResults(StrategyCacheFirst, status.LookupStatusOfflineMiss,
		http.StatusServiceUnavailable, start)
}

// IsNavigation returns true if the request is a page navigation (a GET whose
// Accept header admits an HTML document)
func IsNavigation(r *http.Request) bool {
	return r.Method == http.MethodGet &&
		strings.Contains(r.Header.Get(headers.NameAccept), headers.ValueTextHTML)
}
