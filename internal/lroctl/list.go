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

	"github.com/googleapis/gax-lro/internal/cli"
	"github.com/googleapis/gax-lro/internal/config"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/lrogrpc"
	"google.golang.org/protobuf/proto"
)

func newCmdList() *cli.Command {
	cmd := &cli.Command{
		Name:      "list",
		Short:     "list prints the operations under a collection",
		UsageLine: "lroctl list [flags] [collection]",
		Long: `List prints every operation under the collection, e.g. "operations" or
"projects/my-project/locations/global/operations", fetching pages on
demand. Each page fetch is retried according to the list section of
-policies.`,
		Run: runList,
	}
	cmd.SetFlags([]func(fs *flag.FlagSet, cfg *config.Config){
		addFlagEndpoint,
		addFlagFilter,
		addFlagFormat,
		addFlagInsecure,
		addFlagPageSize,
		addFlagPolicyFile,
		addFlagTimeout,
		addFlagVerbose,
	})
	return cmd
}

func runList(ctx context.Context, cfg *config.Config, args []string) error {
	var collection string
	if len(args) > 0 {
		collection = args[0]
	}
	f, err := newFormatter(cfg.Format)
	if err != nil {
		return err
	}
	p, err := loadPolicies(cfg)
	if err != nil {
		return err
	}
	client, closeFn, err := operationsClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ops := lrogrpc.List(client, collection, cfg.Filter, int32(cfg.PageSize), p.paginator...)
	for raw, err := range ops.Items(ctx) {
		if err != nil {
			return fmt.Errorf("listing operations: %w", err)
		}
		op, err := lrogrpc.Decode[proto.Message, proto.Message](raw)
		if err != nil {
			return err
		}
		v := view{Name: op.Name(), Done: op.Done(), State: lro.StatePolling.String()}
		v.Metadata, _ = op.Metadata()
		if op.Done() {
			v.State = lro.StateSucceeded.String()
			if v.Result, v.Err = op.Result(); v.Err != nil {
				v.State = lro.StateFailed.String()
			}
		}
		line, err := f.render(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
