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

// Package headers provides functionality for HTTP headers
package headers

import (
	"net/http"
)

const (
	// NameCacheStatus represents the cache lookup result header inserted by the interceptor
	NameCacheStatus = "X-Edgecache-Status"
	// NameAuthorization represents the HTTP Header Name of "Authorization"
	NameAuthorization = "Authorization"
	// NameContentType represents the HTTP Header Name of "Content-Type"
	NameContentType = "Content-Type"
	// NameContentLength represents the HTTP Header Name of "Content-Length"
	NameContentLength = "Content-Length"
	// NameAccept represents the HTTP Header Name of "Accept"
	NameAccept = "Accept"
	// NameDate represents the HTTP Header Name of "Date"
	NameDate = "Date"
	// NameVia represents the HTTP Header Name of "Via"
	NameVia = "Via"

	// ValueApplicationJSON represents the HTTP Header Value of "application/json"
	ValueApplicationJSON = "application/json"
	// ValueTextPlain represents the HTTP Header Value of "text/plain"
	ValueTextPlain = "text/plain"
	// ValueTextHTML represents the HTTP Header Value of "text/html"
	ValueTextHTML = "text/html"
)

// hop-by-hop headers are stripped when a response is copied downstream or into cache
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Clone returns an exact copy of the provided headers collection
func Clone(h http.Header) http.Header {
	h2 := make(http.Header, len(h))
	for k, v := range h {
		v2 := make([]string, len(v))
		copy(v2, v)
		h2[k] = v2
	}
	return h2
}

// Merge merges the source http.Header map into destination map.
// If a key exists in both maps, the source value wins.
// If the destination map is nil, the source map will not be merged
func Merge(dst, src http.Header) {
	if len(src) == 0 || dst == nil {
		return
	}
	for k, sv := range src {
		if len(sv) == 0 {
			continue
		}
		dst[k] = []string{sv[0]}
	}
}

// StripHopHeaders removes hop-by-hop headers from the provided collection
func StripHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}
