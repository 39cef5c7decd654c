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
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/googleapis/gax-lro/retry"
)

// StartFunc starts a long-running operation.
type StartFunc[R, M any] func(ctx context.Context) (*Operation[R, M], error)

// PollFunc fetches the current state of the named operation.
type PollFunc[R, M any] func(ctx context.Context, name string) (*Operation[R, M], error)

// State is the position of a Poller in its lifecycle.
type State int

const (
	// StateNotStarted means the start action has not returned an operation.
	StateNotStarted State = iota
	// StatePolling means the operation was started and is not done.
	StatePolling
	// StateSucceeded means the operation completed with a result.
	StateSucceeded
	// StateFailed means the operation failed, or the poller gave up.
	StateFailed
	// StateCancelled means the context was cancelled or its deadline
	// expired.
	StateCancelled
)

// String returns a lower case name for the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type phase int

const (
	phaseStart phase = iota
	phasePoll
	phaseDone
)

var errNilOperation = errors.New("action returned no operation and no error")

// Poller drives a long-running operation from start to completion.
//
// A Poller is owned by the goroutine that drives it and is not safe for
// concurrent use. The policies it holds may be shared.
type Poller[R, M any] struct {
	settings
	start StartFunc[R, M]
	poll  PollFunc[R, M]

	phase       phase
	name        string
	op          *Operation[R, M]
	err         error
	pollAttempt int
	pollStart   time.Time
	nextDelay   time.Duration
}

// New returns a Poller that starts the operation with start and observes it
// with poll. No call is made until the poller is driven.
func New[R, M any](start func(ctx context.Context) (*Operation[R, M], error), poll func(ctx context.Context, name string) (*Operation[R, M], error), opts ...Option) *Poller[R, M] {
	p := &Poller[R, M]{
		settings: defaultSettings(),
		start:    start,
		poll:     poll,
	}
	for _, opt := range opts {
		opt(&p.settings)
	}
	return p
}

// Resume returns a Poller for an operation that was already started, for
// example by a previous process. It goes straight to polling name.
func Resume[R, M any](name string, poll func(ctx context.Context, name string) (*Operation[R, M], error), opts ...Option) *Poller[R, M] {
	p := New[R, M](nil, poll, opts...)
	p.phase = phasePoll
	p.name = name
	return p
}

// Name returns the name of the operation, or "" if it has not started.
func (p *Poller[R, M]) Name() string {
	return p.name
}

// Done reports whether the poller reached a terminal state. Once done, the
// poller makes no more calls.
func (p *Poller[R, M]) Done() bool {
	return p.phase == phaseDone
}

// State returns the current lifecycle state.
func (p *Poller[R, M]) State() State {
	switch {
	case p.phase == phaseStart:
		return StateNotStarted
	case p.phase == phasePoll:
		return StatePolling
	case p.err == nil:
		return StateSucceeded
	case errors.Is(p.err, context.Canceled), errors.Is(p.err, context.DeadlineExceeded):
		return StateCancelled
	default:
		return StateFailed
	}
}

// Poll advances the poller by one step.
//
// The first step runs the start action. Each later step waits for the
// polling backoff and polls the operation, retrying poll errors as the
// polling retry policy allows. A step returns the latest operation and a nil
// error while the operation is running. It returns a non-nil error, or a
// done operation, when the poller reaches a terminal state. After that,
// Poll returns the same terminal values without making any calls.
//
// The returned operation is nil if the start action never succeeded.
func (p *Poller[R, M]) Poll(ctx context.Context) (*Operation[R, M], error) {
	switch p.phase {
	case phaseDone:
		return p.op, p.err
	case phaseStart:
		loop := retry.Loop{Policy: p.startRetry, Backoff: p.startBackoff, Clock: p.clock}
		op, err := retry.Run[*Operation[R, M]](ctx, loop, p.start)
		if err != nil {
			return p.finish(fmt.Errorf("starting operation: %w", err))
		}
		return p.record(op)
	default:
		op, err := p.pollOnce(ctx)
		if err != nil {
			return p.finish(fmt.Errorf("polling operation %q: %w", p.name, err))
		}
		return p.record(op)
	}
}

// All returns the sequence of operation states, ending with the terminal
// one. Breaking out of the loop leaves the poller where it is: a later call
// to All or Poll continues from there.
func (p *Poller[R, M]) All(ctx context.Context) iter.Seq2[*Operation[R, M], error] {
	return func(yield func(*Operation[R, M], error) bool) {
		for !p.Done() {
			op, err := p.Poll(ctx)
			if !yield(op, err) {
				return
			}
		}
	}
}

// Wait drives the poller to a terminal state and returns the result of the
// operation.
func (p *Poller[R, M]) Wait(ctx context.Context) (R, error) {
	for range p.All(ctx) {
	}
	if p.err != nil {
		var zero R
		return zero, p.err
	}
	return p.op.Result()
}

func (p *Poller[R, M]) pollOnce(ctx context.Context) (*Operation[R, M], error) {
	if p.pollStart.IsZero() {
		p.pollStart = p.clock.Now()
	}
	for {
		delay := p.nextDelay
		p.nextDelay = 0
		if delay <= 0 {
			delay = p.pollBackoff.Delay(p.pollAttempt)
		}
		if err := retry.Sleep(ctx, p.clock, delay); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.pollAttempt++
		op, err := p.poll(ctx, p.name)
		if err == nil {
			return op, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w (last error: %v)", ctxErr, err)
		}
		elapsed := p.clock.Now().Sub(p.pollStart)
		d := p.pollRetry.OnError(err, p.pollAttempt, elapsed)
		if d.Action != retry.ActionRetry {
			if d.Err == nil {
				d.Err = err
			}
			return nil, d.Error(p.pollAttempt, elapsed)
		}
		p.nextDelay = d.Delay
	}
}

func (p *Poller[R, M]) record(op *Operation[R, M]) (*Operation[R, M], error) {
	if op == nil {
		return p.finish(errNilOperation)
	}
	p.op = op
	if op.Name() != "" {
		p.name = op.Name()
	}
	if op.Done() {
		_, err := op.Result()
		return p.finish(err)
	}
	if p.name == "" {
		return p.finish(errors.New("operation in progress has no name to poll"))
	}
	p.phase = phasePoll
	return op, nil
}

func (p *Poller[R, M]) finish(err error) (*Operation[R, M], error) {
	p.phase = phaseDone
	p.err = err
	return p.op, err
}
