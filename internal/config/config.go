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

// Package config defines configuration used by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// EndpointEnvVar names the environment variable that supplies the default
// Operations service endpoint.
const EndpointEnvVar = "LROCTL_ENDPOINT"

// Config holds all configuration values parsed from flags or environment
// variables. When adding members to this struct, please keep them in
// alphabetical order.
type Config struct {
	// CloudBuildEndpoint is the host:port of the Cloud Build API used by
	// run-trigger. It is empty for the production endpoint and is never
	// taken from LROCTL_ENDPOINT.
	//
	// CloudBuildEndpoint is specified with the -cloudbuild-endpoint flag.
	CloudBuildEndpoint string

	// CommandName is the name of the command being executed.
	//
	// CommandName is populated automatically after flag parsing. No user
	// setup is expected.
	CommandName string

	// Endpoint is the host:port of the service that implements
	// google.longrunning.Operations.
	//
	// Endpoint is specified with the -endpoint flag and defaults to the
	// LROCTL_ENDPOINT environment variable.
	Endpoint string

	// Filter restricts the operations returned by the list command, for
	// example "done=false".
	Filter string

	// Format is a mustache template used by the wait command to print each
	// observed state. Metadata fields are available under snake_case names.
	Format string

	// Insecure dials Endpoint, or CloudBuildEndpoint for run-trigger,
	// without TLS or credentials. It is meant for local emulators.
	Insecure bool

	// JobsFile is a YAML file listing Cloud Build triggers that run-trigger
	// starts together.
	JobsFile string

	// Location is the Cloud Build region used by run-trigger.
	Location string

	// Method is the fully qualified RPC name whose long_running settings
	// are read from ServiceConfig, e.g.
	// "google.devtools.cloudbuild.v1.CloudBuild.RunBuildTrigger".
	Method string

	// PageSize is the page size requested by the list command. Zero lets
	// the server choose.
	PageSize int

	// PolicyFile is a YAML or TOML file with retry and backoff policies.
	PolicyFile string

	// Project is the Google Cloud project used by run-trigger.
	Project string

	// ServiceConfig is the path of a google.api.Service YAML file.
	ServiceConfig string

	// Substitutions are the trigger substitutions passed by run-trigger.
	Substitutions map[string]string

	// Timeout bounds the whole command. Zero means no limit.
	Timeout time.Duration

	// Trigger is the name of the Cloud Build trigger started by
	// run-trigger.
	Trigger string

	// Verbose enables debug logging.
	Verbose bool
}

// New returns a new Config populated with environment variables.
func New(cmdName string) *Config {
	return &Config{
		CommandName: cmdName,
		Endpoint:    os.Getenv(EndpointEnvVar),
		Location:    "global",
	}
}

// IsValid ensures the values contained in a Config are valid.
func (c *Config) IsValid() (bool, error) {
	if c.PageSize < 0 {
		return false, fmt.Errorf("page size must be non-negative, got %d", c.PageSize)
	}
	if c.Timeout < 0 {
		return false, fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	if c.ServiceConfig != "" && c.Method == "" {
		return false, errors.New("service config specified without method")
	}
	if c.Method != "" && c.ServiceConfig == "" {
		return false, errors.New("method specified without service config")
	}
	if c.JobsFile != "" && c.Trigger != "" {
		return false, errors.New("trigger and jobs file are mutually exclusive")
	}
	return true, nil
}
