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

// Package automation runs Cloud Build triggers and waits for the builds
// they start, polling each build's long-running operation.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-lro/internal/config"
	"github.com/googleapis/gax-lro/internal/conn"
)

const (
	region          = "global"
	defaultEndpoint = "cloudbuild.googleapis.com:443"
)

// These are variables so tests can replace the real Cloud Build
// connection.
var (
	newClientsFn = newClients
	dialFn       = conn.Dial
)

// newClients connects to cfg.CloudBuildEndpoint, or to the production
// Cloud Build endpoint when it is empty. cfg.Endpoint names the Operations
// service used by the other commands and is ignored here.
func newClients(ctx context.Context, cfg *config.Config) (Clients, func() error, error) {
	endpoint := cfg.CloudBuildEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	c, err := dialFn(ctx, endpoint, cfg.Insecure)
	if err != nil {
		return Clients{}, nil, fmt.Errorf("error creating cloudbuild client: %w", err)
	}
	return Clients{
		Builds:     cloudbuildpb.NewCloudBuildClient(c),
		Operations: longrunningpb.NewOperationsClient(c),
	}, c.Close, nil
}

// Run starts the trigger named by cfg.Trigger, or every job listed in
// cfg.JobsFile, and waits for the resulting builds.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg.Trigger == "" && cfg.JobsFile == "" {
		return errors.New("one of trigger or jobs file is required")
	}
	var jobs *JobsConfig
	if cfg.JobsFile != "" {
		var err error
		if jobs, err = loadJobsConfig(cfg.JobsFile, cfg.Project, cfg.Location); err != nil {
			return err
		}
	} else if cfg.Project == "" {
		return errors.New("project is required")
	}

	clients, closeFn, err := newClientsFn(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if jobs != nil {
		builds, err := runJobs(ctx, clients, jobs, opts)
		slog.Info("jobs finished", slog.Int("succeeded", len(builds)), slog.Int("total", len(jobs.Jobs)))
		return err
	}
	location := cfg.Location
	if location == "" {
		location = region
	}
	_, err = runCloudBuildTriggerByName(ctx, clients, cfg.Project, location, cfg.Trigger, cfg.Substitutions, opts)
	return err
}
