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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

var (
	errTransient = status.Error(codes.Unavailable, "try again")
	errDenied    = status.Error(codes.PermissionDenied, "go away")
)

func TestNeverRetry(t *testing.T) {
	d := NeverRetry{}.OnError(errTransient, 1, 0)
	if d.Action != ActionExhausted {
		t.Fatalf("got action %v, want %v", d.Action, ActionExhausted)
	}
	err := d.Error(1, time.Second)
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want *ExhaustedError", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("errors.Is(%v, %v) = false", err, errTransient)
	}
	if exhausted.Attempts != 1 {
		t.Errorf("got %d attempts, want 1", exhausted.Attempts)
	}
}

func TestAlwaysRetry(t *testing.T) {
	for attempt := 1; attempt < 100; attempt++ {
		if d := (AlwaysRetry{}).OnError(errDenied, attempt, time.Hour); d.Action != ActionRetry {
			t.Fatalf("attempt %d: got %v, want %v", attempt, d.Action, ActionRetry)
		}
	}
}

func TestLimitedAttempts(t *testing.T) {
	policy := LimitedAttempts{MaxAttempts: 3}
	for _, test := range []struct {
		attempt int
		want    Action
	}{
		{1, ActionRetry},
		{2, ActionRetry},
		{3, ActionExhausted},
		{4, ActionExhausted},
	} {
		t.Run(fmt.Sprintf("attempt-%d", test.attempt), func(t *testing.T) {
			got := policy.OnError(errTransient, test.attempt, 0)
			if diff := cmp.Diff(test.want, got.Action); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLimitedAttemptsKeepsPermanent(t *testing.T) {
	policy := LimitedAttempts{MaxAttempts: 3, Inner: TransientErrors{}}
	d := policy.OnError(errDenied, 1, 0)
	if d.Action != ActionPermanent {
		t.Fatalf("got %v, want %v", d.Action, ActionPermanent)
	}
	if err := d.Error(1, 0); err != errDenied {
		t.Errorf("got %v, want %v", err, errDenied)
	}
}

func TestLimitedElapsedTime(t *testing.T) {
	policy := LimitedElapsedTime{Maximum: 10 * time.Second}
	for _, test := range []struct {
		elapsed time.Duration
		want    Action
	}{
		{0, ActionRetry},
		{9 * time.Second, ActionRetry},
		{10 * time.Second, ActionExhausted},
		{time.Minute, ActionExhausted},
	} {
		t.Run(test.elapsed.String(), func(t *testing.T) {
			got := policy.OnError(errTransient, 1, test.elapsed)
			if diff := cmp.Diff(test.want, got.Action); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransientErrors(t *testing.T) {
	withRetryInfo, err := status.New(codes.Unavailable, "slow down").WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(5 * time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name      string
		policy    TransientErrors
		err       error
		want      Action
		wantDelay time.Duration
	}{
		{
			name: "default codes retry unavailable",
			err:  errTransient,
			want: ActionRetry,
		},
		{
			name: "wrapped unavailable",
			err:  fmt.Errorf("calling service: %w", errTransient),
			want: ActionRetry,
		},
		{
			name: "default codes stop on permission denied",
			err:  errDenied,
			want: ActionPermanent,
		},
		{
			name: "plain error is permanent",
			err:  errors.New("boom"),
			want: ActionPermanent,
		},
		{
			name:   "custom codes",
			policy: TransientErrors{Codes: []codes.Code{codes.PermissionDenied}},
			err:    errDenied,
			want:   ActionRetry,
		},
		{
			name:      "retry info hint",
			err:       withRetryInfo.Err(),
			want:      ActionRetry,
			wantDelay: 5 * time.Second,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := test.policy.OnError(test.err, 1, 0)
			if diff := cmp.Diff(test.want, got.Action); diff != "" {
				t.Errorf("action mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.wantDelay, got.Delay); diff != "" {
				t.Errorf("delay mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	for _, test := range []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"grpc", errDenied, codes.PermissionDenied},
		{"plain", errors.New("boom"), codes.Unknown},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, _ := Classify(test.err)
			if got != test.want {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	for _, test := range []struct {
		action Action
		want   string
	}{
		{ActionRetry, "retry"},
		{ActionExhausted, "exhausted"},
		{ActionPermanent, "permanent"},
		{Action(42), "Action(42)"},
	} {
		if got := test.action.String(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}
