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

// Package metrics implements prometheus metrics and exposes the metrics HTTP listener
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/messmate/edgecache/pkg/observability/logging"
)

const (
	metricNamespace  = "edgecache"
	proxySubsystem   = "proxy"
	cacheSubsystem   = "cache"
	queueSubsystem   = "queue"
	monitorSubsystem = "monitor"
	buildSubsystem   = "build"
)

// Default histogram buckets
var defaultBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 10, 20}

// BuildInfo is a Gauge representing the binary build information of the running server instance
var BuildInfo *prometheus.GaugeVec

// ProxyRequestStatus is a Counter of downstream client requests handled by the proxy,
// labeled by caching strategy, lookup status and response code
var ProxyRequestStatus *prometheus.CounterVec

// ProxyRequestDuration is a Histogram of time required in seconds to serve a proxied request
var ProxyRequestDuration *prometheus.HistogramVec

// CacheObjectOperations is a Counter of operations (in # of objects) performed on a cache
var CacheObjectOperations *prometheus.CounterVec

// CacheByteOperations is a Counter of operations (in # of bytes) performed on a cache
var CacheByteOperations *prometheus.CounterVec

// QueueRecords is a Gauge representing the number of unsynced records in the write queue
var QueueRecords *prometheus.GaugeVec

// QueueOperations is a Counter of enqueue/replay/delete operations performed on the write queue
var QueueOperations *prometheus.CounterVec

// UpstreamOnline is a Gauge that is 1 while the upstream API is considered reachable, else 0
var UpstreamOnline prometheus.Gauge

// UpstreamTransitions is a Counter of observed connectivity transitions, labeled by direction
var UpstreamTransitions *prometheus.CounterVec

func init() {

	BuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: buildSubsystem,
			Name:      "info",
			Help:      "Build information for the running instance",
		},
		[]string{"goversion", "revision", "version"},
	)

	ProxyRequestStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: proxySubsystem,
			Name:      "requests_total",
			Help:      "Count of requests handled by the interceptor",
		},
		[]string{"strategy", "cache_status", "http_status"},
	)

	ProxyRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: proxySubsystem,
			Name:      "request_duration_seconds",
			Help:      "Time required to serve a proxied request",
			Buckets:   defaultBuckets,
		},
		[]string{"strategy", "cache_status", "http_status"},
	)

	CacheObjectOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_objects_total",
			Help:      "Count of objects upon which the cache has operated",
		},
		[]string{"cache_name", "provider", "operation", "status"},
	)

	CacheByteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_bytes_total",
			Help:      "Count of bytes upon which the cache has operated",
		},
		[]string{"cache_name", "provider", "operation", "status"},
	)

	QueueRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: queueSubsystem,
			Name:      "records",
			Help:      "Number of unsynced records currently held in the write queue",
		},
		[]string{"type"},
	)

	QueueOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: queueSubsystem,
			Name:      "operations_total",
			Help:      "Count of operations performed on the write queue",
		},
		[]string{"type", "operation", "status"},
	)

	UpstreamOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: monitorSubsystem,
			Name:      "upstream_online",
			Help:      "1 while the upstream API is considered reachable, else 0",
		},
	)

	UpstreamTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: monitorSubsystem,
			Name:      "upstream_transitions_total",
			Help:      "Count of observed connectivity transitions",
		},
		[]string{"direction"},
	)

	prometheus.MustRegister(BuildInfo)
	prometheus.MustRegister(ProxyRequestStatus)
	prometheus.MustRegister(ProxyRequestDuration)
	prometheus.MustRegister(CacheObjectOperations)
	prometheus.MustRegister(CacheByteOperations)
	prometheus.MustRegister(QueueRecords)
	prometheus.MustRegister(QueueOperations)
	prometheus.MustRegister(UpstreamOnline)
	prometheus.MustRegister(UpstreamTransitions)
}

// Handler returns the http handler for the prometheus metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// ListenAndServe starts the metrics listener on the provided address and port
func ListenAndServe(logger *logging.EdgeLogger, address string, port int) error {
	endpoint := fmt.Sprintf("%s:%d", address, port)
	logger.Info("metrics http endpoint starting", logging.Pairs{"address": address, "port": fmt.Sprintf("%d", port)})
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	s := &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.ListenAndServe()
}
