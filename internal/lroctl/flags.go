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

package lroctl

import (
	"flag"
	"fmt"
	"strings"

	"github.com/googleapis/gax-lro/internal/config"
)

func addFlagCloudBuildEndpoint(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.CloudBuildEndpoint, "cloudbuild-endpoint", "", "host:port of the Cloud Build API; empty uses the production endpoint")
}

func addFlagEndpoint(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "host:port of the Operations service. Defaults to $"+config.EndpointEnvVar)
}

func addFlagFilter(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Filter, "filter", "", "filter applied by the server, e.g. done=false")
}

func addFlagFormat(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Format, "format", "", "mustache template for each printed operation; fields: name, done, state, error, metadata.*, result.*")
}

func addFlagInsecure(fs *flag.FlagSet, cfg *config.Config) {
	fs.BoolVar(&cfg.Insecure, "insecure", false, "connect without TLS or credentials, for local emulators")
}

func addFlagJobsFile(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.JobsFile, "jobs", "", "YAML file listing triggers to run together")
}

func addFlagLocation(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Location, "location", cfg.Location, "Cloud Build region")
}

func addFlagMethod(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Method, "method", "", "fully qualified RPC whose long_running settings to use, requires -service-config")
}

func addFlagPageSize(fs *flag.FlagSet, cfg *config.Config) {
	fs.IntVar(&cfg.PageSize, "page-size", 0, "number of operations per page; 0 lets the server choose")
}

func addFlagPolicyFile(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.PolicyFile, "policies", "", "YAML or TOML file with retry and backoff policies")
}

func addFlagProject(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Project, "project", "", "Google Cloud project ID")
}

func addFlagServiceConfig(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.ServiceConfig, "service-config", "", "path to a google.api.Service YAML file")
}

func addFlagSubstitution(fs *flag.FlagSet, cfg *config.Config) {
	fs.Func("substitution", "KEY=VALUE trigger substitution; may be repeated", func(s string) error {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return fmt.Errorf("substitution %q is not KEY=VALUE", s)
		}
		if cfg.Substitutions == nil {
			cfg.Substitutions = map[string]string{}
		}
		cfg.Substitutions[k] = v
		return nil
	})
}

func addFlagTimeout(fs *flag.FlagSet, cfg *config.Config) {
	fs.DurationVar(&cfg.Timeout, "timeout", 0, "give up after this long; 0 means no limit")
}

func addFlagTrigger(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Trigger, "trigger", "", "name of the Cloud Build trigger to run")
}

func addFlagVerbose(fs *flag.FlagSet, cfg *config.Config) {
	fs.BoolVar(&cfg.Verbose, "v", false, "enable debug logging")
}
