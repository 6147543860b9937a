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
	"net/url"
	"sort"
	"strings"

	"github.com/messmate/edgecache/pkg/util/md5"
)

// DeriveCacheKey calculates the cache key for the provided request URL.
// The key identity is the method-less URL: path plus canonicalized query;
// two requests for the same URL always map to the same key regardless of
// header variation.
func DeriveCacheKey(u *url.URL) string {
	return md5.Checksum(u.Path + "?" + canonicalQuery(u.Query()))
}

// DeriveCacheKeyFromPath calculates the cache key for a bare path with no query
func DeriveCacheKeyFromPath(path string) string {
	return md5.Checksum(path + "?")
}

func canonicalQuery(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := params[k]
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, k+"="+v)
		}
	}
	return strings.Join(pairs, "&")
}
