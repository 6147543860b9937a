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

package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/messmate/edgecache/cmd/edgecache/config"
	"github.com/messmate/edgecache/pkg/monitor"
	"github.com/messmate/edgecache/pkg/observability/metrics"
	"github.com/messmate/edgecache/pkg/proxy/headers"
	"github.com/messmate/edgecache/pkg/queue"
)

// healthStatus is the response shape of the upstream health handler
type healthStatus struct {
	Upstream string         `json:"upstream"`
	Queued   map[string]int `json:"queued"`
}

// managementRouter returns the mux served on the management listener
func managementRouter(conf *config.Config, mon *monitor.Monitor,
	drainer *queue.Drainer, q *queue.Queue) *http.ServeMux {

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc(conf.Main.PingHandlerPath,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headers.NameContentType, headers.ValueTextPlain)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("pong"))
		})

	mux.HandleFunc(conf.Main.ConfigHandlerPath,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headers.NameContentType, headers.ValueTextPlain)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(conf.String()))
		})

	mux.HandleFunc(conf.Main.HealthHandlerPath,
		func(w http.ResponseWriter, r *http.Request) {
			hs := &healthStatus{
				Upstream: mon.State().String(),
				Queued:   make(map[string]int),
			}
			for _, t := range q.Types() {
				hs.Queued[t] = q.Count(t)
			}
			w.Header().Set(headers.NameContentType, headers.ValueApplicationJSON)
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(hs)
		})

	// a POST with an optional ?type= triggers a drain pass out of band, the
	// same way a background sync wakeup would
	mux.HandleFunc(conf.Main.SyncHandlerPath,
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if t := r.URL.Query().Get("type"); t != "" {
				go drainer.Drain(context.Background(), t)
			} else {
				go drainer.DrainAll(context.Background())
			}
			w.WriteHeader(http.StatusAccepted)
		})

	return mux
}
