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

package lro

import (
	"time"

	"github.com/googleapis/gax-lro/backoff"
	"github.com/googleapis/gax-lro/retry"
	"google.golang.org/grpc/codes"
)

// Option configures a Poller.
type Option func(*settings)

type settings struct {
	startRetry   retry.Policy
	startBackoff backoff.Policy
	pollRetry    retry.Policy
	pollBackoff  backoff.Policy
	clock        retry.Clock
}

func defaultSettings() settings {
	return settings{
		startRetry: retry.NeverRetry{},
		startBackoff: backoff.Exponential{
			Initial:    time.Second,
			Maximum:    60 * time.Second,
			Multiplier: 2,
		},
		pollRetry: retry.TransientErrors{Codes: []codes.Code{codes.Unavailable}},
		pollBackoff: backoff.Exponential{
			Initial:    time.Second,
			Maximum:    60 * time.Second,
			Multiplier: 1.5,
		},
		clock: retry.WallClock,
	}
}

// WithStartRetry sets the policy applied to errors from the start action.
// The default never retries.
func WithStartRetry(p retry.Policy) Option {
	return func(s *settings) {
		if p != nil {
			s.startRetry = p
		}
	}
}

// WithStartBackoff sets the delay between start attempts.
func WithStartBackoff(p backoff.Policy) Option {
	return func(s *settings) {
		if p != nil {
			s.startBackoff = p
		}
	}
}

// WithPollRetry sets the policy applied to errors from the poll action.
// The default retries UNAVAILABLE.
//
// Use retry.NeverRetry when the poll action already retries internally.
func WithPollRetry(p retry.Policy) Option {
	return func(s *settings) {
		if p != nil {
			s.pollRetry = p
		}
	}
}

// WithPollBackoff sets the delay before each poll.
func WithPollBackoff(p backoff.Policy) Option {
	return func(s *settings) {
		if p != nil {
			s.pollBackoff = p
		}
	}
}

// WithClock replaces the clock used to measure elapsed time and to wait
// between attempts.
func WithClock(c retry.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}
