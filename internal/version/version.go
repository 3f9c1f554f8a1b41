/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package version

import (
	"fmt"
	"os"
	"strings"
)

// EnvEnvironment names the deployment environment; "development" marks a dev build.
const EnvEnvironment = "GBA_ENVIRONMENT"

// Set at build time:
//
//	go build -ldflags "-X granblueautomation/internal/version.Version=1.2.0 -X granblueautomation/internal/version.Commit=abc123"
var (
	Version = "0.1.0-dev"
	Commit  = ""
)

// String returns the version, with the commit appended when known.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}

// IsDevelopment reports whether this binary is a development build: either the
// version carries a -dev suffix or GBA_ENVIRONMENT is "development".
func IsDevelopment() bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv(EnvEnvironment)), "development") {
		return true
	}
	return strings.HasSuffix(Version, "-dev")
}
