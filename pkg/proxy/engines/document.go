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
	"strconv"
	"time"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/messmate/edgecache/pkg/cache/namespace"
	"github.com/messmate/edgecache/pkg/proxy/headers"
)

// HTTPDocument represents a captured HTTP Response snapshot as stored in a cache namespace.
// Documents are immutable once stored; a refetch overwrites the whole document.
type HTTPDocument struct {
	StatusCode    int                 `msgpack:"status_code"`
	Status        string              `msgpack:"status"`
	Headers       map[string][]string `msgpack:"headers"`
	Body          []byte              `msgpack:"body"`
	ContentType   string              `msgpack:"content_type"`
	ContentLength int64               `msgpack:"content_length"`
	StoredTS      int64               `msgpack:"stored_ts"`
}

// DocumentFromHTTPResponse returns an HTTPDocument from the provided HTTP Response and Body
func DocumentFromHTTPResponse(resp *http.Response, body []byte) *HTTPDocument {
	h := headers.Clone(resp.Header)
	headers.StripHopHeaders(h)
	// the Date header is re-inserted as Now() on cache retrieval
	h.Del(headers.NameDate)
	d := &HTTPDocument{
		StatusCode:    resp.StatusCode,
		Status:        resp.Status,
		Headers:       h,
		Body:          body,
		ContentType:   resp.Header.Get(headers.NameContentType),
		ContentLength: int64(len(body)),
		StoredTS:      time.Now().Unix(),
	}
	return d
}

// WriteResponse writes the document to the provided ResponseWriter, marking the
// response with the provided cache status
func (d *HTTPDocument) WriteResponse(w http.ResponseWriter, cacheStatus string) {
	h := w.Header()
	headers.Merge(h, http.Header(d.Headers))
	h.Set(headers.NameDate, time.Now().UTC().Format(http.TimeFormat))
	h.Set(headers.NameContentLength, strconv.FormatInt(d.ContentLength, 10))
	if cacheStatus != "" {
		h.Set(headers.NameCacheStatus, cacheStatus)
	}
	w.WriteHeader(d.StatusCode)
	w.Write(d.Body)
}

// QueryCache queries the provided namespace for an HTTPDocument and returns it
func QueryCache(ns *namespace.Namespace, key string) (*HTTPDocument, error) {
	inflate := ns.Configuration().Compression
	if inflate {
		key += ".sz"
	}
	data, _, err := ns.Retrieve(key)
	if err != nil {
		return nil, err
	}
	if inflate {
		b, err := snappy.Decode(nil, data)
		if err == nil {
			data = b
		}
	}
	d := &HTTPDocument{}
	if err = msgpack.Unmarshal(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

// WriteCache writes an HTTPDocument to the provided namespace
func WriteCache(ns *namespace.Namespace, key string, d *HTTPDocument, ttl time.Duration) error {
	data, err := msgpack.Marshal(d)
	if err != nil {
		return err
	}
	if ns.Configuration().Compression {
		key += ".sz"
		data = snappy.Encode(nil, data)
	}
	return ns.Store(key, data, ttl)
}

// drainAndClose reads the remainder of a response body and closes it so the
// underlying connection can be reused
func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
