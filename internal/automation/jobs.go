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

package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"cloud.google.com/go/cloudbuild/apiv1/v2/cloudbuildpb"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxConcurrentJobs bounds how many builds are awaited at once.
const maxConcurrentJobs = 4

// JobConfig represents a single Cloud Build trigger to run.
type JobConfig struct {
	Name          string            `yaml:"name"`
	Trigger       string            `yaml:"trigger"`
	Substitutions map[string]string `yaml:"substitutions"`
}

// JobsConfig represents a set of triggers that are run together.
type JobsConfig struct {
	Project  string       `yaml:"project"`
	Location string       `yaml:"location"`
	Jobs     []*JobConfig `yaml:"jobs"`
}

// Validate checks the the JobConfig is valid.
func (c *JobConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Trigger == "" {
		return fmt.Errorf("trigger is required")
	}
	return nil
}

// Validate checks the the JobsConfig is valid.
func (c *JobsConfig) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	seen := map[string]bool{}
	for i, j := range c.Jobs {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("invalid job config at index %d: %w", i, err)
		}
		if seen[j.Name] {
			return fmt.Errorf("duplicate job name %q at index %d", j.Name, i)
		}
		seen[j.Name] = true
	}
	return nil
}

// parseJobsConfig reads a jobs file. project and location fill in the file's
// values when it leaves them empty.
func parseJobsConfig(contentLoader func(file string) ([]byte, error), path, project, location string) (*JobsConfig, error) {
	bytes, err := contentLoader(path)
	if err != nil {
		return nil, err
	}
	var c JobsConfig
	if err := yaml.Unmarshal(bytes, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling jobs config: %w", err)
	}
	if c.Project == "" {
		c.Project = project
	}
	if c.Location == "" {
		c.Location = location
	}
	if c.Location == "" {
		c.Location = region
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating jobs config: %w", err)
	}
	return &c, nil
}

func loadJobsConfig(path, project, location string) (*JobsConfig, error) {
	return parseJobsConfig(os.ReadFile, path, project, location)
}

// runJobs runs every job's trigger and waits for the builds. Failures are
// collected; one failed job does not stop the others.
func runJobs(ctx context.Context, c Clients, cfg *JobsConfig, opts Options) (map[string]*cloudbuildpb.Build, error) {
	var (
		mu     sync.Mutex
		errs   []error
		builds = map[string]*cloudbuildpb.Build{}
	)
	var g errgroup.Group
	g.SetLimit(maxConcurrentJobs)
	for _, job := range cfg.Jobs {
		g.Go(func() error {
			slog.Debug("running job", "job", job.Name, "trigger", job.Trigger)
			build, err := runCloudBuildTriggerByName(ctx, c, cfg.Project, cfg.Location, job.Trigger, job.Substitutions, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Error running job", slog.String("job", job.Name), slog.Any("err", err))
				errs = append(errs, fmt.Errorf("job %q: %w", job.Name, err))
				return nil
			}
			builds[job.Name] = build
			return nil
		})
	}
	g.Wait()
	return builds, errors.Join(errs...)
}
