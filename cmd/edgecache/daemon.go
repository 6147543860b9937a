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
	"fmt"
	"net/http"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/messmate/edgecache/cmd/edgecache/config"
	"github.com/messmate/edgecache/pkg/cache/namespace"
	"github.com/messmate/edgecache/pkg/cache/registry"
	"github.com/messmate/edgecache/pkg/monitor"
	"github.com/messmate/edgecache/pkg/observability/logging"
	"github.com/messmate/edgecache/pkg/observability/metrics"
	"github.com/messmate/edgecache/pkg/observability/tracing"
	"github.com/messmate/edgecache/pkg/proxy"
	"github.com/messmate/edgecache/pkg/queue"
	"github.com/messmate/edgecache/pkg/runtime"
)

const shutdownTimeout = 10 * time.Second

// run assembles the daemon from the loaded configuration and blocks until
// an exit signal arrives or a listener fails
func run(args []string) error {

	conf, flags, err := config.Load(runtime.ApplicationName,
		runtime.ApplicationVersion, args)
	if err != nil {
		fmt.Println("\nERROR: Could not load configuration:", err.Error())
		if flags == nil || !flags.ValidateConfig {
			printUsage()
		}
		return err
	}
	if flags.PrintVersion {
		printVersion()
		return nil
	}
	if flags.ValidateConfig {
		fmt.Println("EdgeCache configuration validation succeeded.")
		return nil
	}

	logger := logging.New(conf.Logging, conf.Main.InstanceID)
	defer logger.Close()
	logger.Info("application loaded from configuration",
		logging.Pairs{
			"name":      runtime.ApplicationName,
			"version":   runtime.ApplicationVersion,
			"goVersion": goruntime.Version(),
			"commitID":  applicationGitCommitID,
			"buildTime": applicationBuildTime,
			"logLevel":  conf.Logging.LogLevel,
		})

	metrics.BuildInfo.WithLabelValues(goruntime.Version(),
		applicationGitCommitID, runtime.ApplicationVersion).Set(1)

	tracer, err := tracing.New(conf.Tracing)
	if err != nil {
		logger.Error("tracer registration failed", logging.Pairs{"detail": err.Error()})
		return err
	}
	if tracer != nil {
		defer tracer.ShutdownFunc(context.Background())
	}

	caches, err := registry.LoadCachesFromConfig(conf.Caches)
	if err != nil {
		logger.Error("cache registration failed", logging.Pairs{"detail": err.Error()})
		return err
	}
	defer registry.CloseCaches(caches)

	c, ok := caches["default"]
	if !ok {
		// any single configured cache may serve as the namespace backing store
		for _, v := range caches {
			c = v
			break
		}
	}
	if c == nil {
		logger.Error("no caches configured", nil)
		return config.ErrNoCaches
	}

	nsStore, err := namespace.NewStore(c, logger)
	if err != nil {
		logger.Error("namespace store initialization failed",
			logging.Pairs{"detail": err.Error()})
		return err
	}

	q, err := queue.New(conf.Queue, logger)
	if err != nil {
		logger.Error("write queue initialization failed",
			logging.Pairs{"detail": err.Error()})
		return err
	}
	defer q.Close()

	client, err := proxy.NewHTTPClient(conf.Upstream)
	if err != nil {
		return err
	}

	mon := monitor.New(conf.Monitor, conf.Upstream, nil, logger)
	drainer := queue.NewDrainer(q, client, conf.Upstream, logger)

	interceptor, err := proxy.New(conf.Upstream, nsStore, client, q, mon,
		logger, tracer)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// install then activate: seed the new static namespace, then sweep the
	// namespaces of prior cache versions
	interceptor.Install(ctx)
	if err = interceptor.Activate(); err != nil {
		logger.Warn("namespace activation failed", logging.Pairs{"detail": err.Error()})
	}

	mon.Start()
	defer mon.Stop()

	// every offline-to-online transition wakes the drainer
	go func() {
		for s := range mon.Subscribe() {
			if s == monitor.StateOnline {
				drainer.DrainAll(ctx)
			}
		}
	}()

	// drain any backlog left over from the previous process lifetime
	go drainer.DrainAll(ctx)

	frontend := &http.Server{
		Addr: fmt.Sprintf("%s:%d", conf.Frontend.ListenAddress,
			conf.Frontend.ListenPort),
		Handler:           interceptor,
		ReadHeaderTimeout: 5 * time.Second,
	}
	management := &http.Server{
		Addr: fmt.Sprintf("%s:%d", conf.Metrics.ListenAddress,
			conf.Metrics.ListenPort),
		Handler:           managementRouter(conf, mon, drainer, q),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		logger.Info("frontend http endpoint starting",
			logging.Pairs{"address": frontend.Addr})
		errs <- frontend.ListenAndServe()
	}()
	go func() {
		logger.Info("management http endpoint starting",
			logging.Pairs{"address": management.Addr})
		errs <- management.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-errs:
		logger.Error("listener failed", logging.Pairs{"detail": err.Error()})
	case sig := <-sigs:
		logger.Info("shutdown signal received", logging.Pairs{"signal": sig.String()})
		err = nil
	}

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	frontend.Shutdown(sctx)
	management.Shutdown(sctx)
	return err
}
