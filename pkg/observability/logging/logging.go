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

// Package logging provides logging functionality for the application,
// including the console and rotating-file loggers
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-stack/stack"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/messmate/edgecache/pkg/runtime"
)

// Options is a collection of logging configurations
type Options struct {
	// LogFile provides the filepath to the instance's logfile. Set as empty string to Log to Console
	LogFile string `yaml:"log_file,omitempty"`
	// LogLevel provides the most granular level (e.g., DEBUG, INFO, ERROR) to log
	LogLevel string `yaml:"log_level,omitempty"`
}

// NewOptions returns a new Options with default values
func NewOptions() *Options {
	return &Options{LogFile: "", LogLevel: "info"}
}

// Pairs represents a key=value pair that helps to describe a log event
type Pairs map[string]interface{}

// EdgeLogger is a container for the underlying log provider
type EdgeLogger struct {
	logger log.Logger
	closer io.Closer
	level  string
}

func mapToArray(event string, detail Pairs) []interface{} {
	a := make([]interface{}, (len(detail)*2)+2)
	var i int

	// Ensure the log level is the first Pair in the output order (after prefixes)
	if level, ok := detail["level"]; ok {
		a[0] = "level"
		a[1] = level
		delete(detail, "level")
		i += 2
	}

	// Ensure the event description is the second Pair in the output order (after prefixes)
	a[i] = "event"
	a[i+1] = event
	i += 2

	for k, v := range detail {
		a[i] = k
		a[i+1] = v
		i += 2
	}
	return a
}

// ConsoleLogger returns an EdgeLogger object that prints log events to the Console
func ConsoleLogger(logLevel string) *EdgeLogger {
	l := &EdgeLogger{}
	l.logger = newLogger(os.Stdout)
	l.level = strings.ToLower(logLevel)
	l.logger = filterByLevel(l.logger, l.level)
	return l
}

// New returns an EdgeLogger for the provided logging options. The returned
// EdgeLogger will write to files distinguished from other EdgeLoggers by the
// instance id.
func New(o *Options, instanceID int) *EdgeLogger {
	if o == nil {
		o = NewOptions()
	}

	l := &EdgeLogger{}

	var wr io.Writer
	if o.LogFile == "" {
		wr = os.Stdout
	} else {
		logFile := o.LogFile
		if instanceID > 0 {
			logFile = strings.Replace(logFile, ".log", "."+strconv.Itoa(instanceID)+".log", 1)
		}
		wr = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    256,  // megabytes
			MaxBackups: 80,   // 256 megs @ 80 backups is 20GB of Logs
			MaxAge:     7,    // days
			Compress:   true, // Compress Rolled Backups
		}
	}

	l.logger = newLogger(wr)
	l.level = strings.ToLower(o.LogLevel)
	l.logger = filterByLevel(l.logger, l.level)

	if c, ok := wr.(io.Closer); ok && c != nil {
		l.closer = c
	}

	return l
}

func newLogger(wr io.Writer) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(wr))
	return log.With(logger,
		"time", log.DefaultTimestampUTC,
		"app", runtime.ApplicationName,
		"caller", log.Valuer(func() interface{} {
			return pkgCaller{stack.Caller(6)}
		}),
	)
}

func filterByLevel(logger log.Logger, logLevel string) log.Logger {
	switch logLevel {
	case "debug", "trace":
		return level.NewFilter(logger, level.AllowDebug())
	case "warn":
		return level.NewFilter(logger, level.AllowWarn())
	case "error":
		return level.NewFilter(logger, level.AllowError())
	}
	return level.NewFilter(logger, level.AllowInfo())
}

// Info sends an "INFO" event to the EdgeLogger
func (l *EdgeLogger) Info(event string, detail Pairs) {
	level.Info(l.logger).Log(mapToArray(event, detail)...)
}

// Warn sends a "WARN" event to the EdgeLogger
func (l *EdgeLogger) Warn(event string, detail Pairs) {
	level.Warn(l.logger).Log(mapToArray(event, detail)...)
}

// Error sends an "ERROR" event to the EdgeLogger
func (l *EdgeLogger) Error(event string, detail Pairs) {
	level.Error(l.logger).Log(mapToArray(event, detail)...)
}

// Debug sends a "DEBUG" event to the EdgeLogger
func (l *EdgeLogger) Debug(event string, detail Pairs) {
	level.Debug(l.logger).Log(mapToArray(event, detail)...)
}

// Trace sends a "TRACE" event to the EdgeLogger
func (l *EdgeLogger) Trace(event string, detail Pairs) {
	// go-kit/log/level does not support Trace, so implemented separately here
	if l.level == "trace" {
		detail["level"] = "trace"
		l.logger.Log(mapToArray(event, detail)...)
	}
}

// Fatal sends a "FATAL" event to the EdgeLogger and exits the program with the provided exit code
func (l *EdgeLogger) Fatal(code int, event string, detail Pairs) {
	// go-kit/log/level does not support Fatal, so implemented separately here
	detail["level"] = "fatal"
	l.logger.Log(mapToArray(event, detail)...)
	if code >= 0 {
		os.Exit(code)
	}
}

// Level returns the configured log level
func (l *EdgeLogger) Level() string {
	return l.level
}

// Close closes any opened file handles that were used for logging
func (l *EdgeLogger) Close() {
	if l.closer != nil {
		l.closer.Close()
	}
}

// Log implements the go-kit log.Logger interface
func (l *EdgeLogger) Log(keyvals ...interface{}) error {
	return l.logger.Log(keyvals...)
}

// pkgCaller wraps a stack.Call to make the default string output include the
// package path
type pkgCaller struct {
	c stack.Call
}

func (pc pkgCaller) String() string {
	return strings.TrimPrefix(fmt.Sprintf("%+v", pc.c), "github.com/messmate/edgecache/")
}
