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

// Package tracing provides distributed tracing services to the proxy engines
package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider names supported by this package
const (
	ProviderNone   = "none"
	ProviderStdout = "stdout"
)

// DefaultServiceName is the service name attached to exported spans
const DefaultServiceName = "edgecache"

// Options is a collection of tracing configurations
type Options struct {
	// Provider is the name of the tracing exporter ("none" or "stdout")
	Provider string `yaml:"provider,omitempty"`
	// ServiceName is the service name attached to exported spans
	ServiceName string `yaml:"service_name,omitempty"`
	// SampleRate sets the probability that a span is recorded (0 to 1)
	SampleRate float64 `yaml:"sample_rate,omitempty"`
	// PrettyPrint indicates whether the stdout exporter should indent its output
	PrettyPrint bool `yaml:"pretty_print,omitempty"`
}

// NewOptions returns a new Options with default values
func NewOptions() *Options {
	return &Options{Provider: ProviderNone, ServiceName: DefaultServiceName, SampleRate: 1}
}

// ShutdownFunc defines a function used to flush a Tracer
type ShutdownFunc func(context.Context) error

// Tracer is the tracer handle carried by the proxy engines; a nil Tracer
// (or a Tracer with a nil embedded trace.Tracer) disables span creation
type Tracer struct {
	trace.Tracer
	Name         string
	ShutdownFunc ShutdownFunc
	Options      *Options
}

// New returns a Tracer for the provided options, or nil when tracing is off
func New(o *Options) (*Tracer, error) {
	if o == nil || o.Provider == "" || o.Provider == ProviderNone {
		return nil, nil
	}

	var so []stdout.Option
	if o.PrettyPrint {
		so = append(so, stdout.WithPrettyPrint())
	}
	exp, err := stdout.New(so...)
	if err != nil {
		return nil, err
	}

	var sampler sdktrace.Sampler
	switch o.SampleRate {
	case 0:
		sampler = sdktrace.NeverSample()
	case 1:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(o.SampleRate)
	}

	sn := o.ServiceName
	if sn == "" {
		sn = DefaultServiceName
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes("",
			attribute.String("service.name", sn))),
	)

	return &Tracer{
		Tracer:       tp.Tracer(o.Provider),
		Name:         o.Provider,
		ShutdownFunc: tp.Shutdown,
		Options:      o,
	}, nil
}

// NewChildSpan returns the context with a new Span situated as the child of the previous span
func NewChildSpan(ctx context.Context, tr *Tracer, spanName string) (context.Context, trace.Span) {
	if tr == nil || tr.Tracer == nil {
		return ctx, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return tr.Start(ctx, spanName)
}

// HTTPToCode translates an HTTP status code into a span status code
func HTTPToCode(status int) codes.Code {
	if status < http.StatusBadRequest {
		return codes.Ok
	}
	return codes.Error
}
