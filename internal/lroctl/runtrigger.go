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
	"context"
	"flag"

	"github.com/googleapis/gax-lro/internal/automation"
	"github.com/googleapis/gax-lro/internal/cli"
	"github.com/googleapis/gax-lro/internal/config"
)

// runTriggerFn is a variable so tests can replace calls to Cloud Build.
var runTriggerFn = automation.Run

func newCmdRunTrigger() *cli.Command {
	cmd := &cli.Command{
		Name:      "run-trigger",
		Short:     "run-trigger runs Cloud Build triggers and waits for the builds",
		UsageLine: "lroctl run-trigger -project=<id> (-trigger=<name> | -jobs=<file>) [flags]",
		Long: `Run-trigger looks up a Cloud Build trigger by name, runs it, and polls the
build's long-running operation until the build finishes. With -jobs,
every trigger listed in the file is run and awaited concurrently; one
failed build does not stop the others.

Example:
  lroctl run-trigger -project=my-project -trigger=nightly -substitution=_PUSH=true`,
		Run: runRunTrigger,
	}
	cmd.SetFlags([]func(fs *flag.FlagSet, cfg *config.Config){
		addFlagCloudBuildEndpoint,
		addFlagInsecure,
		addFlagJobsFile,
		addFlagLocation,
		addFlagPolicyFile,
		addFlagProject,
		addFlagSubstitution,
		addFlagTimeout,
		addFlagTrigger,
		addFlagVerbose,
	})
	return cmd
}

func runRunTrigger(ctx context.Context, cfg *config.Config, args []string) error {
	p, err := loadPolicies(cfg)
	if err != nil {
		return err
	}
	return runTriggerFn(ctx, cfg, automation.Options{
		Poller:    p.poller,
		Paginator: p.paginator,
	})
}
