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
	"time"

	"github.com/messmate/edgecache/pkg/cache/status"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/tracing"
	"github.com/messmate/edgecache/pkg/proxy/headers"
)

// DoNetworkFirst proxies an API read with the network-first-with-cache-fallback
// strategy: the live response wins whenever the upstream is reachable; a
// successful live response is also committed to the api namespace; on
// transport failure the most recent cached document for the key is served,
// and when none exists a synthesized offline response is returned.
func DoNetworkFirst(w http.ResponseWriter, r *http.Request, rsc *Resources) {
	start := time.Now()
	ctx, span := tracing.NewChildSpan(r.Context(), rsc.Tracer, "NetworkFirst")
	if span != nil {
		defer span.End()
	}

	key := DeriveCacheKey(r.URL)

	req, err := rsc.UpstreamRequest(ctx, r)
	if err != nil {
		writeSynthetic(w, http.StatusInternalServerError, headers.ValueTextPlain,
			"bad upstream request", status.LookupStatusProxyError)
		recordResults(StrategyNetworkFirst, status.LookupStatusProxyError,
			http.StatusInternalServerError, start)
		return
	}

	resp, err := rsc.UpstreamClient.Do(req)
	if err != nil {
		rsc.observe(false)
		// transport failure; attempt the cached document for this exact key
		if d, cerr := QueryCache(rsc.APICache, key); cerr == nil {
			rsc.Logger.Debug("serving api read from cache",
				logging.Pairs{"url": r.URL.String(), "key": key})
			d.WriteResponse(w, status.LookupStatusOfflineHit.String())
			recordResults(StrategyNetworkFirst, status.LookupStatusOfflineHit, d.StatusCode, start)
			return
		}
		writeSynthetic(w, http.StatusServiceUnavailable, headers.ValueApplicationJSON,
			OfflineAPIBody, status.LookupStatusOfflineMiss)
		recordResults(StrategyNetworkFirst, status.LookupStatusOfflineMiss,
			http.StatusServiceUnavailable, start)
		return
	}
	rsc.observe(true)
	defer drainAndClose(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeSynthetic(w, http.StatusBadGateway, headers.ValueTextPlain,
			"upstream read failed", status.LookupStatusProxyError)
		recordResults(StrategyNetworkFirst, status.LookupStatusProxyError,
			http.StatusBadGateway, start)
		return
	}

	// a cache commit failure must never block the response path
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		d := DocumentFromHTTPResponse(resp, body)
		if err := WriteCache(rsc.APICache, key, d, 0); err != nil {
			rsc.Logger.Warn("cache commit failed",
				logging.Pairs{"key": key, "detail": err.Error()})
		}
	}

	relayResponse(w, resp, body, status.LookupStatusProxyOnly)
	recordResults(StrategyNetworkFirst, status.LookupStatusProxyOnly, resp.StatusCode, start)
}
