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

// Package main is the main package for the EdgeCache application
package main

import (
	"os"

	"github.com/messmate/edgecache/pkg/runtime"
)

var (
	applicationGitCommitID string
	applicationBuildTime   string
)

const (
	applicationName    = "edgecache"
	applicationVersion = "1.1.0"
)

func main() {
	runtime.ApplicationName = applicationName
	runtime.ApplicationVersion = applicationVersion
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
