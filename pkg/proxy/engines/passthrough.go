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
	"github.com/messmate/edgecache/pkg/observability/tracing"
	"github.com/messmate/edgecache/pkg/proxy/headers"
)

// DoProxy forwards the request to the upstream with no caching features
func DoProxy(w http.ResponseWriter, r *http.Request, rsc *Resources) {
	start := time.Now()
	ctx, span := tracing.NewChildSpan(r.Context(), rsc.Tracer, "ProxyRequest")
	if span != nil {
		defer span.End()
	}

	req, err := rsc.UpstreamRequest(ctx, r)
	if err != nil {
		writeSynthetic(w, http.StatusInternalServerError, headers.ValueTextPlain,
			"bad upstream request", status.LookupStatusProxyError)
		recordResults(StrategyProxyOnly, status.LookupStatusProxyError,
			http.StatusInternalServerError, start)
		return
	}

	resp, err := rsc.UpstreamClient.Do(req)
	if err != nil {
		rsc.observe(false)
		writeSynthetic(w, http.StatusBadGateway, headers.ValueTextPlain,
			"upstream unreachable", status.LookupStatusProxyError)
		recordResults(StrategyProxyOnly, status.LookupStatusProxyError,
			http.StatusBadGateway, start)
		return
	}
	rsc.observe(true)
	defer drainAndClose(resp)

	h := w.Header()
	headers.Merge(h, resp.Header)
	headers.StripHopHeaders(h)
	h.Set(headers.NameCacheStatus, status.LookupStatusProxyOnly.String())
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)

	recordResults(StrategyProxyOnly, status.LookupStatusProxyOnly, resp.StatusCode, start)
}
