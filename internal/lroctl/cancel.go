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
	"errors"
	"flag"
	"fmt"
	"log/slog"

	"github.com/googleapis/gax-lro/internal/cli"
	"github.com/googleapis/gax-lro/internal/config"
	"github.com/googleapis/gax-lro/lrogrpc"
)

func newCmdCancel() *cli.Command {
	cmd := &cli.Command{
		Name:      "cancel",
		Short:     "cancel asks the server to cancel operations",
		UsageLine: "lroctl cancel [flags] <operation>...",
		Long: `Cancel asks the server to cancel each named operation. Cancellation is
best effort; use "lroctl wait" to learn how the operation ended.`,
		Run: runCancel,
	}
	cmd.SetFlags([]func(fs *flag.FlagSet, cfg *config.Config){
		addFlagEndpoint,
		addFlagInsecure,
		addFlagTimeout,
		addFlagVerbose,
	})
	return cmd
}

func runCancel(ctx context.Context, cfg *config.Config, args []string) error {
	if err := requireArgs(args, "cancel requires at least one operation name"); err != nil {
		return err
	}
	client, closeFn, err := operationsClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var errs []error
	for _, name := range args {
		if err := lrogrpc.Cancel(ctx, client, name); err != nil {
			slog.Error("cancel failed", slog.String("name", name), slog.Any("err", err))
			errs = append(errs, fmt.Errorf("cancelling %s: %w", name, err))
			continue
		}
		slog.Info("cancel requested", slog.String("name", name))
		fmt.Fprintln(out, name)
	}
	return errors.Join(errs...)
}
