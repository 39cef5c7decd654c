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

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/googleapis/gax-lro/backoff"
	"github.com/googleapis/gax-lro/lro"
	"github.com/googleapis/gax-lro/retry"
	"google.golang.org/genproto/googleapis/api/serviceconfig"
	"google.golang.org/protobuf/encoding/protojson"
)

// LongRunning holds the polling settings an API publishes for one method
// in the long_running block of its service config.
type LongRunning struct {
	InitialPollDelay    time.Duration
	PollDelayMultiplier float64
	MaxPollDelay        time.Duration
	TotalPollTimeout    time.Duration
}

// LoadServiceConfig reads a google.api.Service YAML file.
func LoadServiceConfig(path string) (*serviceconfig.Service, error) {
	y, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading service config [%s]: %w", path, err)
	}
	j, err := yaml.YAMLToJSON(y)
	if err != nil {
		return nil, fmt.Errorf("error converting YAML to JSON [%s]: %w", path, err)
	}
	cfg := &serviceconfig.Service{}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(j, cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling service config [%s]: %w", path, err)
	}
	// An API Service Config will always have a `name` so if it is not
	// populated, it's an invalid config.
	if cfg.GetName() == "" {
		return nil, fmt.Errorf("missing name in service config file [%s]", path)
	}
	return cfg, nil
}

// FindLongRunning returns the long_running settings for method, the fully
// qualified RPC name used as the method_settings selector.
func FindLongRunning(svc *serviceconfig.Service, method string) (*LongRunning, error) {
	for _, ms := range svc.GetPublishing().GetMethodSettings() {
		if ms.GetSelector() != method {
			continue
		}
		lr := ms.GetLongRunning()
		if lr == nil {
			return nil, fmt.Errorf("method %q has no long_running settings", method)
		}
		return &LongRunning{
			InitialPollDelay:    lr.GetInitialPollDelay().AsDuration(),
			PollDelayMultiplier: float64(lr.GetPollDelayMultiplier()),
			MaxPollDelay:        lr.GetMaxPollDelay().AsDuration(),
			TotalPollTimeout:    lr.GetTotalPollTimeout().AsDuration(),
		}, nil
	}
	return nil, fmt.Errorf("no method_settings for %q in service %q", method, svc.GetName())
}

// Backoff returns the polling backoff described by l. Unset fields take
// the backoff.Exponential defaults.
func (l *LongRunning) Backoff() backoff.Exponential {
	return backoff.Exponential{
		Initial:    l.InitialPollDelay,
		Maximum:    l.MaxPollDelay,
		Multiplier: l.PollDelayMultiplier,
	}
}

// PollerOptions returns the poll backoff and, when a total timeout is set,
// a poll retry policy that stops retrying failed polls once the timeout
// has elapsed. Callers bound the whole wait with a context deadline of
// TotalPollTimeout.
func (l *LongRunning) PollerOptions() []lro.Option {
	opts := []lro.Option{lro.WithPollBackoff(l.Backoff())}
	if l.TotalPollTimeout > 0 {
		opts = append(opts, lro.WithPollRetry(retry.LimitedElapsedTime{
			Maximum: l.TotalPollTimeout,
			Inner:   retry.TransientErrors{},
		}))
	}
	return opts
}
