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

package config

const (
	// DefaultConfigPath defines the default location of the EdgeCache config file
	DefaultConfigPath = "/etc/edgecache/edgecache.yaml"
	// DefaultProxyListenPort is the default port the intercepting listener binds
	DefaultProxyListenPort = 8480
	// DefaultMetricsListenPort is the default port the management listener binds
	DefaultMetricsListenPort = 8481
	// DefaultConfigHandlerPath is the default config output handler path
	DefaultConfigHandlerPath = "/edgecache/config"
	// DefaultPingHandlerPath is the default ping handler path
	DefaultPingHandlerPath = "/edgecache/ping"
	// DefaultHealthHandlerPath is the default upstream health handler path
	DefaultHealthHandlerPath = "/edgecache/health"
	// DefaultSyncHandlerPath is the default queue drain trigger path
	DefaultSyncHandlerPath = "/edgecache/sync"
)
