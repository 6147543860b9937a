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

// Package monitor provides the upstream connectivity monitor. It owns the
// online/offline flag and publishes transitions to subscribers such as the
// queue drainer and the health handler.
package monitor

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/metrics"
	po "github.com/messmate/edgecache/pkg/proxy/options"
)

// State describes an observed connectivity transition
type State int

const (
	// StateOffline indicates the upstream transitioned to unreachable
	StateOffline = State(iota)
	// StateOnline indicates the upstream transitioned to reachable (a reconnect)
	StateOnline
)

func (s State) String() string {
	if s == StateOnline {
		return "online"
	}
	return "offline"
}

// Default option values
const (
	DefaultProbePath         = "/api/health"
	DefaultIntervalMS        = 5000
	DefaultTimeoutMS         = 3000
	DefaultFailureThreshold  = 3
	DefaultRecoveryThreshold = 1
)

// Options is a collection of connectivity monitor configurations
type Options struct {
	// ProbePath is the upstream path probed to determine reachability
	ProbePath string `yaml:"probe_path,omitempty"`
	// IntervalMS is the probe interval in milliseconds
	IntervalMS int `yaml:"interval_ms,omitempty"`
	// TimeoutMS is the probe timeout in milliseconds
	TimeoutMS int `yaml:"timeout_ms,omitempty"`
	// FailureThreshold is the count of consecutive probe failures that marks the upstream offline
	FailureThreshold int `yaml:"failure_threshold,omitempty"`
	// RecoveryThreshold is the count of consecutive probe successes that marks the upstream online
	RecoveryThreshold int `yaml:"recovery_threshold,omitempty"`
}

// NewOptions returns a new Options with default values
func NewOptions() *Options {
	return &Options{
		ProbePath:         DefaultProbePath,
		IntervalMS:        DefaultIntervalMS,
		TimeoutMS:         DefaultTimeoutMS,
		FailureThreshold:  DefaultFailureThreshold,
		RecoveryThreshold: DefaultRecoveryThreshold,
	}
}

// Monitor probes the upstream on an interval and tracks its reachability
type Monitor struct {
	opts     *Options
	upstream *po.Options
	client   *http.Client
	logger   *logging.EdgeLogger

	online                atomic.Bool
	failConsecutiveCnt    atomic.Int32
	successConsecutiveCnt atomic.Int32

	mtx  sync.Mutex
	subs []chan State

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Monitor for the provided upstream; the monitor assumes the
// upstream is online until probes prove otherwise
func New(o *Options, upstream *po.Options, client *http.Client,
	logger *logging.EdgeLogger) *Monitor {
	if o == nil {
		o = NewOptions()
	}
	if o.FailureThreshold < 1 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	if o.RecoveryThreshold < 1 {
		o.RecoveryThreshold = DefaultRecoveryThreshold
	}
	if client == nil {
		client = &http.Client{Timeout: time.Duration(o.TimeoutMS) * time.Millisecond}
	}
	m := &Monitor{opts: o, upstream: upstream, client: client, logger: logger}
	m.online.Store(true)
	metrics.UpstreamOnline.Set(1)
	return m
}

// IsOnline returns true while the upstream is considered reachable
func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// State returns the current connectivity state
func (m *Monitor) State() State {
	if m.online.Load() {
		return StateOnline
	}
	return StateOffline
}

// Subscribe returns a channel that receives connectivity transitions. The
// channel is buffered; a subscriber that falls behind misses intermediate
// transitions but always observes the most recent one eventually.
func (m *Monitor) Subscribe() <-chan State {
	ch := make(chan State, 4)
	m.mtx.Lock()
	m.subs = append(m.subs, ch)
	m.mtx.Unlock()
	return ch
}

// Start launches the probe loop; Stop ends it
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		interval := time.Duration(m.opts.IntervalMS) * time.Millisecond
		t := time.NewTicker(interval)
		defer t.Stop()
		m.probe(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.probe(ctx)
			}
		}
	}()
}

// Stop ends the probe loop and waits for it to exit
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// probe issues one reachability check and applies the thresholds
func (m *Monitor) probe(ctx context.Context) {
	u := m.upstream.Scheme + "://" + m.upstream.Host + m.upstream.PathPrefix + m.opts.ProbePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		m.observe(false)
		return
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.observe(false)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	m.observe(resp.StatusCode < http.StatusInternalServerError)
}

// Observe feeds a reachability observation into the monitor; the probe loop
// and the interceptor's own upstream outcomes both converge here
func (m *Monitor) Observe(ok bool) {
	m.observe(ok)
}

func (m *Monitor) observe(ok bool) {
	if ok {
		m.failConsecutiveCnt.Store(0)
		n := m.successConsecutiveCnt.Add(1)
		if !m.online.Load() && n >= int32(m.opts.RecoveryThreshold) {
			m.transition(StateOnline)
		}
		return
	}
	m.successConsecutiveCnt.Store(0)
	n := m.failConsecutiveCnt.Add(1)
	if m.online.Load() && n >= int32(m.opts.FailureThreshold) {
		m.transition(StateOffline)
	}
}

func (m *Monitor) transition(s State) {
	m.online.Store(s == StateOnline)
	if s == StateOnline {
		metrics.UpstreamOnline.Set(1)
	} else {
		metrics.UpstreamOnline.Set(0)
	}
	metrics.UpstreamTransitions.WithLabelValues(s.String()).Inc()
	m.logger.Info("upstream connectivity transition",
		logging.Pairs{"state": s.String()})
	m.mtx.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
	m.mtx.Unlock()
}
