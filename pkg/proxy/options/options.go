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

// Package options defines the upstream and interceptor configuration
package options

import (
	"errors"
	"net/url"
	"time"
)

// Default option values
const (
	DefaultAPIPrefix          = "/api/"
	DefaultTimeoutMS          = 30000
	DefaultKeepAliveTimeoutMS = 300000
	DefaultMaxIdleConns       = 20
	DefaultCacheVersion       = "v1"
	DefaultOfflinePagePath    = "/offline.html"
)

// ErrNoOriginURL is returned when the options carry no upstream origin url
var ErrNoOriginURL = errors.New("no origin url provided")

// Options is a collection of upstream and interceptor configurations
type Options struct {
	// OriginURL provides the base upstream URL for all proxied requests
	OriginURL string `yaml:"origin_url,omitempty"`
	// APIPrefix is the path prefix under which requests are treated as API reads
	APIPrefix string `yaml:"api_prefix,omitempty"`
	// CacheVersion tags the current static and api namespace names; changing it
	// invalidates all previously cached entries on the next activation
	CacheVersion string `yaml:"cache_version,omitempty"`
	// PrecacheURLs is the manifest of app shell paths seeded into the static
	// namespace at install time
	PrecacheURLs []string `yaml:"precache_urls,omitempty"`
	// OfflinePagePath is the cached shell path served when a navigation fails offline
	OfflinePagePath string `yaml:"offline_page_path,omitempty"`
	// TimeoutMS defines how long the HTTP request will wait for a response before timing out
	TimeoutMS int64 `yaml:"timeout_ms,omitempty"`
	// KeepAliveTimeoutMS defines how long an open keep-alive HTTP connection remains idle before closing
	KeepAliveTimeoutMS int64 `yaml:"keep_alive_timeout_ms,omitempty"`
	// MaxIdleConns defines maximum number of open keep-alive connections to maintain
	MaxIdleConns int `yaml:"max_idle_conns,omitempty"`
	// InsecureSkipVerify indicates whether to bypass upstream certificate verification
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`

	// Scheme is the layer3 protocol (http/https) of the parsed OriginURL
	Scheme string `yaml:"-"`
	// Host is the host of the parsed OriginURL
	Host string `yaml:"-"`
	// PathPrefix is the path of the parsed OriginURL
	PathPrefix string `yaml:"-"`
}

// New will return a pointer to an Options with the default configuration settings
func New() *Options {
	return &Options{
		APIPrefix:          DefaultAPIPrefix,
		CacheVersion:       DefaultCacheVersion,
		OfflinePagePath:    DefaultOfflinePagePath,
		TimeoutMS:          DefaultTimeoutMS,
		KeepAliveTimeoutMS: DefaultKeepAliveTimeoutMS,
		MaxIdleConns:       DefaultMaxIdleConns,
	}
}

// Clone returns an exact copy of the subject Options
func (o *Options) Clone() *Options {
	no := *o
	no.PrecacheURLs = make([]string, len(o.PrecacheURLs))
	copy(no.PrecacheURLs, o.PrecacheURLs)
	return &no
}

// Timeout returns the configured timeout as a time.Duration
func (o *Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutMS) * time.Millisecond
}

// Validate parses the OriginURL and populates the derived fields
func (o *Options) Validate() error {
	if o.OriginURL == "" {
		return ErrNoOriginURL
	}
	u, err := url.Parse(o.OriginURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid origin url scheme: " + u.Scheme)
	}
	o.Scheme = u.Scheme
	o.Host = u.Host
	o.PathPrefix = u.Path
	return nil
}
