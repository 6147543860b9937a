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

package methods

import (
	"net/http"
	"testing"
)

func TestIsCacheable(t *testing.T) {
	if !IsCacheable(http.MethodGet) {
		t.Error("expected GET to be cacheable")
	}
	// method-less cache keys make every non-GET uncacheable, HEAD included
	for _, m := range []string{http.MethodHead, http.MethodPost, http.MethodDelete, "UNKNOWN"} {
		if IsCacheable(m) {
			t.Errorf("expected %s not to be cacheable", m)
		}
	}
	if !IsCacheable("get") {
		t.Error("expected method matching to be case-insensitive")
	}
}

func TestHasBody(t *testing.T) {
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		if !HasBody(m) {
			t.Errorf("expected %s to convey a body", m)
		}
	}
	if HasBody(http.MethodGet) {
		t.Error("expected GET not to convey a body")
	}
}
