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
	"fmt"
	"log/slog"

	"github.com/googleapis/gax-lro/internal/cli"
	"github.com/googleapis/gax-lro/internal/config"
	"github.com/googleapis/gax-lro/lrogrpc"
	"google.golang.org/protobuf/proto"
)

const waitLongHelp = `Wait polls an existing operation until it is done and prints one line for
every state it observes. The first poll happens after the initial poll
delay.

The output of each line is controlled by -format, a mustache template.
Metadata and result fields are available under snake_case names, e.g.
{{metadata.build.status}}. Use triple braces to avoid HTML escaping.

Retry and backoff policies come from -policies, and from the long_running
settings of -method in -service-config when both are given. The settings
from the service config take precedence, and its total_poll_timeout bounds
the wait unless -timeout is set.

Example:
  lroctl wait -endpoint=localhost:8080 -insecure operations/123`

func newCmdWait() *cli.Command {
	cmd := &cli.Command{
		Name:      "wait",
		Short:     "wait polls an operation until it is done",
		UsageLine: "lroctl wait [flags] <operation>",
		Long:      waitLongHelp,
		Run:       runWait,
	}
	cmd.SetFlags([]func(fs *flag.FlagSet, cfg *config.Config){
		addFlagEndpoint,
		addFlagFormat,
		addFlagInsecure,
		addFlagMethod,
		addFlagPolicyFile,
		addFlagServiceConfig,
		addFlagTimeout,
		addFlagVerbose,
	})
	return cmd
}

func runWait(ctx context.Context, cfg *config.Config, args []string) error {
	if err := requireArgs(args, "wait requires an operation name"); err != nil {
		return err
	}
	name := args[0]
	f, err := newFormatter(cfg.Format)
	if err != nil {
		return err
	}
	p, err := loadPolicies(cfg)
	if err != nil {
		return err
	}
	if p.timeout > 0 && cfg.Timeout == 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	client, closeFn, err := operationsClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	slog.Info("waiting for operation", slog.String("name", name))
	poller := lrogrpc.ResumePoller[proto.Message, proto.Message](client, name, p.poller...)
	for op, pollErr := range poller.All(ctx) {
		v := view{Name: poller.Name(), State: poller.State().String(), Err: pollErr}
		if op != nil {
			v.Name = op.Name()
			v.Done = op.Done()
			v.Metadata, _ = op.Metadata()
			if op.Done() {
				v.Result, _ = op.Result()
			}
		}
		line, err := f.render(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, line)
		if pollErr != nil {
			return fmt.Errorf("waiting for %s: %w", name, pollErr)
		}
	}
	return nil
}
