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
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/googleapis/gax-lro/internal/config"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/paginator"
)

func operationsClient(ctx context.Context, cfg *config.Config) (longrunningpb.OperationsClient, func() error, error) {
	if cfg.Endpoint == "" {
		return nil, nil, fmt.Errorf("no endpoint: set -endpoint or $%s", config.EndpointEnvVar)
	}
	c, err := dial(ctx, cfg.Endpoint, cfg.Insecure)
	if err != nil {
		return nil, nil, err
	}
	return longrunningpb.NewOperationsClient(c), c.Close, nil
}

// policies gathers the retry settings for one command. Policy file values
// act as client defaults; service config long_running settings are
// specific to a method and override them. The returned timeout is the
// total poll timeout from the service config, or zero.
type policies struct {
	poller    []lro.Option
	paginator []paginator.Option
	timeout   time.Duration
}

func loadPolicies(cfg *config.Config) (*policies, error) {
	p := &policies{
		poller:    []lro.Option{lro.WithClock(clock)},
		paginator: []paginator.Option{paginator.WithClock(clock)},
	}
	if cfg.PolicyFile != "" {
		file, err := config.LoadPolicies(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		p.poller = append(p.poller, file.PollerOptions()...)
		p.paginator = append(p.paginator, file.PaginatorOptions()...)
		slog.Debug("loaded policy file", "path", cfg.PolicyFile)
	}
	if cfg.ServiceConfig != "" {
		svc, err := config.LoadServiceConfig(cfg.ServiceConfig)
		if err != nil {
			return nil, err
		}
		lr, err := config.FindLongRunning(svc, cfg.Method)
		if err != nil {
			return nil, err
		}
		p.poller = append(p.poller, lr.PollerOptions()...)
		p.timeout = lr.TotalPollTimeout
		slog.Debug("using long_running settings",
			slog.String("method", cfg.Method),
			slog.Duration("initialPollDelay", lr.InitialPollDelay),
			slog.Duration("maxPollDelay", lr.MaxPollDelay),
			slog.Duration("totalPollTimeout", lr.TotalPollTimeout),
		)
	}
	return p, nil
}

func requireArgs(args []string, usage string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	return nil
}
