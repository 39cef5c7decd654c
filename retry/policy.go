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

// Package retry decides whether a failed attempt should be retried, and runs
// retry loops built from those decisions.
//
// Policies are stateless: the attempt count and the elapsed time are passed
// in on every call. A single policy value may be shared by many concurrent
// loops.
package retry

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Action is the outcome of a Policy decision.
type Action int

const (
	// ActionRetry retries the operation after a delay.
	ActionRetry Action = iota
	// ActionExhausted stops the loop because the policy ran out of attempts
	// or time. The error is surfaced as an *ExhaustedError.
	ActionExhausted
	// ActionPermanent stops the loop because the error can never succeed on
	// retry. The error is surfaced unchanged.
	ActionPermanent
)

// String returns a lower case name for the action.
func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionExhausted:
		return "exhausted"
	case ActionPermanent:
		return "permanent"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is returned by Policy.OnError.
type Decision struct {
	Action Action
	// Delay is a hint for the wait before the next attempt. Zero means the
	// loop's backoff policy picks the delay.
	Delay time.Duration
	// Err is the error that stopped the loop. Unused for ActionRetry.
	Err error
}

// RetryAfter returns a decision to retry. A positive delay overrides the
// loop's backoff policy for the next wait.
func RetryAfter(delay time.Duration) Decision {
	return Decision{Action: ActionRetry, Delay: max(delay, 0)}
}

// Exhausted returns a decision to stop because the retry budget is spent.
func Exhausted(err error) Decision {
	return Decision{Action: ActionExhausted, Err: err}
}

// Permanent returns a decision to stop because err is not retryable.
func Permanent(err error) Decision {
	return Decision{Action: ActionPermanent, Err: err}
}

// Error returns the error a loop reports when it stops on d, or nil if d
// retries.
func (d Decision) Error(attempts int, elapsed time.Duration) error {
	switch d.Action {
	case ActionRetry:
		return nil
	case ActionExhausted:
		return &ExhaustedError{Attempts: attempts, Elapsed: elapsed, Err: d.Err}
	default:
		return d.Err
	}
}

// Policy decides whether to retry after an error.
//
// attempt is the number of attempts made so far, including the one that
// just failed, so it is always >= 1. elapsed is the time since the loop
// started.
type Policy interface {
	OnError(err error, attempt int, elapsed time.Duration) Decision
}

// ExhaustedError reports that a retry policy gave up. It wraps the error
// from the last attempt.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Error implements error.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry policy exhausted after %d attempt(s) in %v: %v", e.Attempts, e.Elapsed, e.Err)
}

// Unwrap returns the error from the last attempt.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// NeverRetry stops on the first error. The error is reported as exhausted,
// so callers can tell it apart from an operation that itself failed.
type NeverRetry struct{}

// OnError implements Policy.
func (NeverRetry) OnError(err error, _ int, _ time.Duration) Decision {
	return Exhausted(err)
}

// AlwaysRetry retries every error. It is normally wrapped by
// LimitedAttempts or LimitedElapsedTime.
type AlwaysRetry struct{}

// OnError implements Policy.
func (AlwaysRetry) OnError(error, int, time.Duration) Decision {
	return RetryAfter(0)
}

// LimitedAttempts stops once MaxAttempts attempts have failed. Inner
// classifies errors and defaults to AlwaysRetry.
type LimitedAttempts struct {
	MaxAttempts int
	Inner       Policy
}

// OnError implements Policy.
func (p LimitedAttempts) OnError(err error, attempt int, elapsed time.Duration) Decision {
	d := orAlways(p.Inner).OnError(err, attempt, elapsed)
	if d.Action != ActionRetry {
		return d
	}
	if attempt >= p.MaxAttempts {
		return Exhausted(err)
	}
	return d
}

// LimitedElapsedTime stops once the loop has run for Maximum. Inner
// classifies errors and defaults to AlwaysRetry.
type LimitedElapsedTime struct {
	Maximum time.Duration
	Inner   Policy
}

// OnError implements Policy.
func (p LimitedElapsedTime) OnError(err error, attempt int, elapsed time.Duration) Decision {
	d := orAlways(p.Inner).OnError(err, attempt, elapsed)
	if d.Action != ActionRetry {
		return d
	}
	if elapsed >= p.Maximum {
		return Exhausted(err)
	}
	return d
}

// DefaultTransientCodes are the codes TransientErrors retries when Codes is
// empty.
var DefaultTransientCodes = []codes.Code{codes.Unavailable}

// TransientErrors retries errors whose gRPC code is in Codes and treats every
// other error as permanent. When the server attaches a google.rpc.RetryInfo
// detail, its delay is used as the hint for the next wait.
type TransientErrors struct {
	Codes []codes.Code
}

// OnError implements Policy.
func (p TransientErrors) OnError(err error, _ int, _ time.Duration) Decision {
	retryable := p.Codes
	if len(retryable) == 0 {
		retryable = DefaultTransientCodes
	}
	code, hint := Classify(err)
	if !slices.Contains(retryable, code) {
		return Permanent(err)
	}
	return RetryAfter(hint)
}

// Classify extracts the gRPC code of err and the server requested retry
// delay, if any. HTTP errors are mapped to the closest gRPC code. Errors
// that carry no status are codes.Unknown.
func Classify(err error) (codes.Code, time.Duration) {
	if err == nil {
		return codes.OK, 0
	}
	ae, ok := apierror.FromError(err)
	if !ok {
		return status.Code(err), 0
	}
	var hint time.Duration
	if ri := ae.Details().RetryInfo; ri != nil && ri.GetRetryDelay() != nil {
		hint = ri.GetRetryDelay().AsDuration()
	}
	if st := ae.GRPCStatus(); st != nil {
		return st.Code(), hint
	}
	return httpCode(ae.HTTPCode()), hint
}

func httpCode(c int) codes.Code {
	switch c {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.Aborted
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusInternalServerError:
		return codes.Internal
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	default:
		return codes.Unknown
	}
}

func orAlways(p Policy) Policy {
	if p == nil {
		return AlwaysRetry{}
	}
	return p
}
