// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"runtime/debug"
	"strings"
	"time"
)

// Version returns the version of the lroctl binary, constructed following
// https://go.dev/ref/mod#versions.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return version(info)
}

// UserAgent returns the user agent sent with every RPC, e.g.
// "lroctl/0.0.0-123456789000-20230125195754".
func UserAgent() string {
	v := Version()
	if v == "" {
		v = "unknown"
	}
	return "lroctl/" + v
}

func version(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	var revision, at string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	if revision == "" && at == "" {
		return "not available"
	}

	// Pseudo-versions use the first 12 characters of the revision and the
	// commit time in UTC, see https://go.dev/ref/mod#pseudo-versions.
	parts := []string{"0.0.0"}
	if revision != "" {
		parts = append(parts, revision[:min(12, len(revision))])
	}
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		parts = append(parts, t.UTC().Format("20060102150405"))
	}
	return strings.Join(parts, "-")
}
