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
	"fmt"

	"github.com/messmate/edgecache/pkg/runtime"
)

const usageText = `
EdgeCache Usage:

 You must provide -version, -config or -origin-url.

 Print Version Info:
 edgecache -version

 Using a configuration file:
  edgecache -config /path/to/file.yaml [-log-level debug|info|warn|error] [-proxy-port 8480] [-metrics-port 8481]

 Using origin-url:
  edgecache -origin-url http://messmate:3000 [-log-level debug|info|warn|error] [-proxy-port 8480] [-metrics-port 8481]

EdgeCache listens on port 8480 by default. Set in a config file, or override using -proxy-port.

Default log level is info. Set in a config file, or override with -log-level.
`

func version() string {
	return fmt.Sprintf("EdgeCache version: %s, buildInfo: %s %s",
		runtime.ApplicationVersion, applicationBuildTime, applicationGitCommitID)
}

func printVersion() {
	fmt.Println(version())
}

func printUsage() {
	fmt.Println()
	fmt.Println(version())
	fmt.Print(usageText + "\n")
}
