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

// Package config provides EdgeCache configuration abilities, including
// parsing and printing configuration files, command line parameters, and
// environment variables, as well as default values and state.
package config

import (
	"errors"
	"os"

	co "github.com/messmate/edgecache/pkg/cache/options"
	"github.com/messmate/edgecache/pkg/monitor"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/tracing"
	po "github.com/messmate/edgecache/pkg/proxy/options"
	"github.com/messmate/edgecache/pkg/queue"

	"gopkg.in/yaml.v2"
)

// ErrNoCaches is returned when no cache is configured to back the namespaces
var ErrNoCaches = errors.New("no caches configured")

// Config is the main configuration object
type Config struct {
	// Main is the primary MainConfig section
	Main *MainConfig `yaml:"main,omitempty"`
	// Upstream describes the origin application server
	Upstream *po.Options `yaml:"upstream,omitempty"`
	// Caches is a map of cache configurations
	Caches map[string]*co.Options `yaml:"caches,omitempty"`
	// Queue configures the durable write queue
	Queue *queue.Options `yaml:"queue,omitempty"`
	// Monitor configures the upstream connectivity monitor
	Monitor *monitor.Options `yaml:"monitor,omitempty"`
	// Frontend configures the primary intercepting listener
	Frontend *FrontendConfig `yaml:"frontend,omitempty"`
	// Logging provides configurations that affect logging behavior
	Logging *logging.Options `yaml:"logging,omitempty"`
	// Metrics provides configurations for the management listener
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
	// Tracing provides the distributed tracing configuration
	Tracing *tracing.Options `yaml:"tracing,omitempty"`

	providedOriginURL string
}

// MainConfig is a collection of general configuration values
type MainConfig struct {
	// InstanceID represents a unique ID for the current instance, when
	// multiple instances run on the same host
	InstanceID int `yaml:"instance_id,omitempty"`
	// ConfigHandlerPath provides the path to register the Config Handler
	// for outputting the running configuration
	ConfigHandlerPath string `yaml:"config_handler_path,omitempty"`
	// PingHandlerPath provides the path to register the Ping Handler for
	// checking that EdgeCache is running
	PingHandlerPath string `yaml:"ping_handler_path,omitempty"`
	// HealthHandlerPath provides the upstream health handler path
	HealthHandlerPath string `yaml:"health_handler_path,omitempty"`
	// SyncHandlerPath provides the path that triggers a queue drain pass
	SyncHandlerPath string `yaml:"sync_handler_path,omitempty"`
	// ServerName is conveyed in Via headers to the upstream origin;
	// defaults to os.Hostname
	ServerName string `yaml:"server_name,omitempty"`
}

// FrontendConfig provides configurations for the intercepting listener
type FrontendConfig struct {
	ListenAddress string `yaml:"listen_address,omitempty"`
	ListenPort    int    `yaml:"listen_port,omitempty"`
}

// MetricsConfig provides configurations for the management listener
type MetricsConfig struct {
	ListenAddress string `yaml:"listen_address,omitempty"`
	ListenPort    int    `yaml:"listen_port,omitempty"`
}

// NewConfig returns a Config initialized with default values
func NewConfig() *Config {
	hn, _ := os.Hostname()
	return &Config{
		Main: &MainConfig{
			ConfigHandlerPath: DefaultConfigHandlerPath,
			PingHandlerPath:   DefaultPingHandlerPath,
			HealthHandlerPath: DefaultHealthHandlerPath,
			SyncHandlerPath:   DefaultSyncHandlerPath,
			ServerName:        hn,
		},
		Upstream: po.New(),
		Caches: map[string]*co.Options{
			"default": co.New(),
		},
		Queue:   queue.NewOptions(),
		Monitor: monitor.NewOptions(),
		Frontend: &FrontendConfig{
			ListenPort: DefaultProxyListenPort,
		},
		Logging: logging.NewOptions(),
		Metrics: &MetricsConfig{
			ListenPort: DefaultMetricsListenPort,
		},
		Tracing: tracing.NewOptions(),
	}
}

// loadFile loads application configuration from a YAML-formatted file
func (c *Config) loadFile(flags *Flags) error {
	b, err := os.ReadFile(flags.ConfigPath)
	if err != nil {
		return err
	}
	return c.loadYAMLConfig(b)
}

// loadYAMLConfig loads application configuration from a YAML-formatted byte slice
func (c *Config) loadYAMLConfig(yml []byte) error {
	return yaml.Unmarshal(yml, c)
}

// Validate checks the assembled configuration for consistency
func (c *Config) Validate() error {
	if err := c.Upstream.Validate(); err != nil {
		return err
	}
	for name, o := range c.Caches {
		o.Name = name
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) String() string {
	cp := c.Clone()

	// strip Redis password
	for k, v := range cp.Caches {
		if v != nil && v.Redis != nil && cp.Caches[k].Redis.Password != "" {
			cp.Caches[k].Redis.Password = "*****"
		}
	}

	b, err := yaml.Marshal(cp)
	if err == nil {
		return string(b)
	}
	return ""
}

// Clone returns an exact copy of the subject *Config
func (c *Config) Clone() *Config {
	nc := NewConfig()

	if c.Main != nil {
		m := *c.Main
		nc.Main = &m
	}
	if c.Upstream != nil {
		nc.Upstream = c.Upstream.Clone()
	}
	nc.Caches = make(map[string]*co.Options, len(c.Caches))
	for k, v := range c.Caches {
		nc.Caches[k] = v.Clone()
	}
	if c.Queue != nil {
		q := *c.Queue
		q.Operations = make(map[string]string, len(c.Queue.Operations))
		for k, v := range c.Queue.Operations {
			q.Operations[k] = v
		}
		nc.Queue = &q
	}
	if c.Monitor != nil {
		m := *c.Monitor
		nc.Monitor = &m
	}
	if c.Frontend != nil {
		f := *c.Frontend
		nc.Frontend = &f
	}
	if c.Logging != nil {
		l := *c.Logging
		nc.Logging = &l
	}
	if c.Metrics != nil {
		m := *c.Metrics
		nc.Metrics = &m
	}
	if c.Tracing != nil {
		t := *c.Tracing
		nc.Tracing = &t
	}
	return nc
}
