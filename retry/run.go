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

package retry

import (
	"context"
	"fmt"

	"github.com/googleapis/gax-lro/backoff"
)

// Loop bundles the collaborators of a retry loop. Nil fields take defaults:
// NeverRetry, a default backoff.Exponential and WallClock.
type Loop struct {
	Policy  Policy
	Backoff backoff.Policy
	Clock   Clock
}

// Run calls fn until it succeeds or the loop's policy stops.
//
// ctx is checked before every call and before every wait. When ctx is done
// the returned error wraps ctx.Err(), so errors.Is(err, context.Canceled)
// and errors.Is(err, context.DeadlineExceeded) identify cancellation.
func Run[T any](ctx context.Context, loop Loop, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	policy, bo, clk := loop.defaults()
	start := clk.Now()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%w (last error: %v)", ctxErr, err)
		}
		elapsed := clk.Now().Sub(start)
		d := policy.OnError(err, attempt, elapsed)
		if d.Action != ActionRetry {
			if d.Err == nil {
				d.Err = err
			}
			return zero, d.Error(attempt, elapsed)
		}
		delay := d.Delay
		if delay <= 0 {
			delay = bo.Delay(attempt - 1)
		}
		if err := Sleep(ctx, clk, delay); err != nil {
			return zero, err
		}
	}
}

func (l Loop) defaults() (Policy, backoff.Policy, Clock) {
	policy, bo, clk := l.Policy, l.Backoff, l.Clock
	if policy == nil {
		policy = NeverRetry{}
	}
	if bo == nil {
		bo = backoff.Exponential{}
	}
	if clk == nil {
		clk = WallClock
	}
	return policy, bo, clk
}
