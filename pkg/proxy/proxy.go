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

// Package proxy provides the edge cache interceptor that fronts the upstream API
package proxy

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	po "github.com/messmate/edgecache/pkg/proxy/options"
)

// NewHTTPClient returns an HTTP client configured to the specifications of the
// provided upstream options
func NewHTTPClient(o *po.Options) (*http.Client, error) {
	if o == nil {
		return nil, nil
	}

	var tlsConfig *tls.Config
	if o.InsecureSkipVerify {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout: o.Timeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Transport: &http.Transport{
			Dial: (&net.Dialer{
				KeepAlive: time.Duration(o.KeepAliveTimeoutMS) * time.Millisecond,
			}).Dial,
			MaxIdleConns:        o.MaxIdleConns,
			MaxIdleConnsPerHost: o.MaxIdleConns,
			TLSClientConfig:     tlsConfig,
		},
	}, nil
}
